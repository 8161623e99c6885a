package engine

import "fmt"

// Player tracks position, score and whether the player is still alive
type Player struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Score int  `json:"score"`
	Alive bool `json:"alive"`
}

// NewPlayer returns a live player at the origin with no score
func NewPlayer() *Player {
	return &Player{Alive: true}
}

// Position returns the player's coordinates
func (p *Player) Position() Position {
	return Position{X: p.X, Y: p.Y}
}

// IsWall reports whether the board edge blocks a step in direction d
func IsWall(board *Board, player *Player, d Direction) bool {
	switch d {
	case Up:
		return player.Y == 0
	case Down:
		return player.Y == board.height-1
	case Left:
		return player.X == 0
	case Right:
		return player.X == board.width-1
	}
	return false
}

// Move steps the player one square in direction d. At a wall it does
// nothing and returns no error. A player already off the board is an error.
func Move(board *Board, player *Player, d Direction) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, d)
	}
	if !board.InBounds(player.X, player.Y) {
		return fmt.Errorf("%w: player at (%d,%d) on %dx%d board",
			ErrOutOfBounds, player.X, player.Y, board.width, board.height)
	}
	if IsWall(board, player, d) {
		return nil
	}

	dx, dy := d.delta()
	player.X += dx
	player.Y += dy
	return nil
}

// ExposeCurrentSquare exposes the square under the player. A mine kills the
// player; a safe square scores one point the first time it is exposed.
func ExposeCurrentSquare(board *Board, player *Player) (ExposeResult, error) {
	sq, err := board.Square(player.X, player.Y)
	if err != nil {
		return ExposeResult{}, err
	}

	first := !sq.Exposed
	hit, err := board.Expose(player.X, player.Y)
	if err != nil {
		return ExposeResult{}, err
	}

	result := ExposeResult{HitMine: hit, FirstExposure: first}
	if hit {
		if first {
			player.Alive = false
		}
		return result, nil
	}

	if first {
		player.Score++
	}
	result.AdjacentMines = CountAdjacentMines(board, player.X, player.Y)
	return result, nil
}

// CountAdjacentMines sums the mines on the in-bounds squares left, right,
// above and below x,y
func CountAdjacentMines(board *Board, x, y int) int {
	mines := 0
	for _, d := range Directions {
		dx, dy := d.delta()
		if sq, err := board.Square(x+dx, y+dy); err == nil && sq.HasMine {
			mines++
		}
	}
	return mines
}

// Quit ends the player's game
func Quit(player *Player) {
	player.Alive = false
}
