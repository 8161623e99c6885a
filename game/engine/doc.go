// Package engine provides the core game logic for minewalk.
//
// The engine package implements the game mechanics including:
//   - The board/mine model: squares, random mine placement, exposure
//   - The player/action model: clamped movement, wall checks, exposing the
//     current square, orthogonal neighbour mine counts
//   - Game state snapshots and action history
//   - Configuration loading and validation
//
// Core Types:
//
// Board owns the grid of Squares. Player holds position, score and the alive
// flag. The free functions Move, IsWall, ExposeCurrentSquare,
// CountAdjacentMines and Quit apply the rules to a Board and Player. The
// Engine interface, implemented by GameEngine, ties one board, one player and
// a seeded generator into a game session and refuses actions once the player
// is dead.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Move(engine.Right)
//	result, err := gameEngine.Expose()
//
// Game Rules:
//
// The player starts in the top-left corner. Each turn they either step one
// square up, down, left or right (walls stop them) or expose the square they
// stand on. A safe square scores one point the first time it is exposed and
// reports how many of its four neighbours hold mines. A mine ends the game.
//
// Mine placement never uses squares excluded by the configured
// ExclusionPolicy: "corners" keeps the four corners clear, "edges" keeps the
// left column, the bottom row and the top-right corner clear.
package engine
