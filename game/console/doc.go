// Package console is the interactive terminal driver for minewalk.
//
// Each turn the board is drawn, the player is prompted for one command and
// the command is applied to a single engine.GameEngine:
//
//	u/up, d/down, l/left, r/right   move one square
//	e/expose                        expose the square under the player
//	s/score                         print the score
//	q/quit                          end the game
//
// The loop ends when the player is dead, either by exposing a mine or by
// quitting. End of input counts as quitting.
package console
