package engine

import (
	"fmt"
	"strings"
)

// Direction is one of the four straight-line moves
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	MinBoardSize = 1
	MaxBoardSize = 50

	// Session bootstrap defaults
	DefaultWidth  = 4
	DefaultHeight = 4
	DefaultMines  = 8
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection converts a user supplied string into a Direction
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down, Left, Right:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Valid reports whether d is one of the four known directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// delta returns the x,y offset of a single step in direction d
func (d Direction) delta() (int, int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ExposeResult is the outcome of exposing the player's current square
type ExposeResult struct {
	HitMine bool `json:"hit_mine"`
	// AdjacentMines is only meaningful when HitMine is false
	AdjacentMines int  `json:"adjacent_mines"`
	FirstExposure bool `json:"first_exposure"`
}

// MoveOutcome describes a single movement attempt
type MoveOutcome struct {
	From    Position `json:"from"`
	To      Position `json:"to"`
	HitWall bool     `json:"hit_wall"`
}

// SquareView is the client-facing view of one square. Mine status of an
// unexposed square is hidden until the game is over.
type SquareView struct {
	X             int  `json:"x"`
	Y             int  `json:"y"`
	Exposed       bool `json:"exposed"`
	Mine          bool `json:"mine,omitempty"`
	AdjacentMines int  `json:"adjacent_mines,omitempty"`
}

// GameState represents the complete client-visible game state
type GameState struct {
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Grid          [][]SquareView `json:"grid"`
	PlayerPos     Position       `json:"player_pos"`
	Score         int            `json:"score"`
	Alive         bool           `json:"alive"`
	GameOver      bool           `json:"game_over"`
	Quit          bool           `json:"quit"`
	Mines         int            `json:"mines"`
	SafeRemaining int            `json:"safe_remaining"`
	Message       string         `json:"message"`
	ConfigName    string         `json:"config_name"`
	// Seed is only set once the game is over
	Seed          int64          `json:"seed,omitempty"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// Rows is the same board rendered for text clients
	Rows []string `json:"rows,omitempty"`
}

// MoveHistoryEntry represents a single action in the game history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Score        int      `json:"score"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
