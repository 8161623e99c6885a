// Package tui is a full-screen terminal view of one minewalk game, built on
// tview and tcell. It accepts the same commands as the line console plus the
// arrow keys, with Enter or Space to expose and Esc to quit.
package tui
