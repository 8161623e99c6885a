package engine

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() (*GameState, error)
	IsGameOver() bool
	GetScore() int
	GetPlayerPosition() Position
	Seed() int64

	// Actions
	Move(d Direction) (MoveOutcome, error)
	CanMove(d Direction) bool
	GetPossibleMoves() []Direction
	Expose() (ExposeResult, error)
	Quit()

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface for a single game session.
// It is not safe for concurrent use.
type GameEngine struct {
	config *GameConfig
	board  *Board
	player *Player
	rng    *rand.Rand
	seed   int64

	message string
	quit    bool
	history []MoveHistoryEntry
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	// The engine keeps its own copy; callers often share one config
	cfg := *config
	cfg.Layout = append([]string(nil), config.Layout...)
	cfg.FillDefaults()
	if err := ValidateGameConfig(&cfg); err != nil {
		return nil, err
	}
	config = &cfg

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &GameEngine{
		config:  config,
		history: []MoveHistoryEntry{},
	}
	if err := e.start(seed); err != nil {
		return nil, err
	}

	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the default configuration
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig())
	if err != nil {
		// The default config is always valid
		panic(err)
	}
	return e
}

// start builds a fresh board and player from the config using seed
func (e *GameEngine) start(seed int64) error {
	rng := rand.New(rand.NewSource(uint64(seed)))

	board, err := buildBoard(e.config, rng)
	if err != nil {
		return err
	}

	e.board = board
	e.player = NewPlayer()
	e.rng = rng
	e.seed = seed
	e.quit = false
	e.message = e.config.Messages.Welcome
	return nil
}

// Board exposes the underlying board
func (e *GameEngine) Board() *Board {
	return e.board
}

// Player exposes the underlying player
func (e *GameEngine) Player() *Player {
	return e.player
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	gameOver := e.IsGameOver()

	grid := make([][]SquareView, e.board.height)
	for y := range grid {
		row := make([]SquareView, e.board.width)
		for x := range row {
			sq := &e.board.squares[y][x]
			view := SquareView{X: x, Y: y, Exposed: sq.Exposed}
			if sq.Exposed || gameOver {
				view.Mine = sq.HasMine
			}
			if sq.Exposed && !sq.HasMine {
				view.AdjacentMines = CountAdjacentMines(e.board, x, y)
			}
			row[x] = view
		}
		grid[y] = row
	}

	history := make([]MoveHistoryEntry, len(e.history))
	copy(history, e.history)

	// The seed rebuilds the whole board, so it is hidden like the mines
	var seed int64
	if gameOver {
		seed = e.seed
	}

	return &GameState{
		Width:         e.board.width,
		Height:        e.board.height,
		Grid:          grid,
		PlayerPos:     e.player.Position(),
		Score:         e.player.Score,
		Alive:         e.player.Alive,
		GameOver:      gameOver,
		Quit:          e.quit,
		Mines:         e.board.MineCount(),
		SafeRemaining: e.board.SafeRemaining(),
		Message:       e.message,
		ConfigName:    e.config.Name,
		Seed:          seed,
		MoveHistory:   history,
		TotalMoves:    len(history),
		Rows:          RenderBoard(e.board, e.player, gameOver),
	}
}

// Reset starts a new board from the same configuration. The next seed is
// drawn from the current generator so a seeded session stays reproducible.
// Cumulative history is kept.
func (e *GameEngine) Reset() (*GameState, error) {
	if err := e.start(e.rng.Int63()); err != nil {
		return nil, err
	}
	return e.GetState(), nil
}

// IsGameOver returns whether the player is dead
func (e *GameEngine) IsGameOver() bool {
	return !e.player.Alive
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.player.Score
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.player.Position()
}

// Seed returns the seed the current board was generated from
func (e *GameEngine) Seed() int64 {
	return e.seed
}

// Message returns the text produced by the last action
func (e *GameEngine) Message() string {
	return e.message
}

// Move attempts to move the player in the specified direction
func (e *GameEngine) Move(d Direction) (MoveOutcome, error) {
	from := e.player.Position()
	outcome := MoveOutcome{From: from, To: from}

	if !d.Valid() {
		return outcome, fmt.Errorf("%w: %q", ErrInvalidDirection, d)
	}
	if e.IsGameOver() {
		return outcome, ErrPlayerDead
	}

	outcome.HitWall = IsWall(e.board, e.player, d)
	if err := Move(e.board, e.player, d); err != nil {
		return outcome, err
	}
	outcome.To = e.player.Position()

	if outcome.HitWall {
		e.message = e.config.Messages.Wall
	} else {
		e.message = fmt.Sprintf("Moved %s to (%d,%d)", d, outcome.To.X, outcome.To.Y)
	}

	e.addToHistory(string(d), from, outcome.To, !outcome.HitWall)
	return outcome, nil
}

// CanMove reports whether a step in direction d would change position
func (e *GameEngine) CanMove(d Direction) bool {
	if e.IsGameOver() || !d.Valid() {
		return false
	}
	return !IsWall(e.board, e.player, d)
}

// GetPossibleMoves returns all directions the player can move in
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, d := range Directions {
		if e.CanMove(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

// Expose exposes the square under the player
func (e *GameEngine) Expose() (ExposeResult, error) {
	if e.IsGameOver() {
		return ExposeResult{}, ErrPlayerDead
	}

	pos := e.player.Position()
	result, err := ExposeCurrentSquare(e.board, e.player)
	if err != nil {
		return result, err
	}

	if result.HitMine {
		e.message = e.config.Messages.Boom
	} else {
		e.message = fmt.Sprintf(e.config.Messages.Safe, result.AdjacentMines)
	}

	e.addToHistory("expose", pos, pos, !result.HitMine)
	return result, nil
}

// Quit ends the game. Quitting an already finished game does nothing.
func (e *GameEngine) Quit() {
	if e.IsGameOver() {
		return
	}

	pos := e.player.Position()
	Quit(e.player)
	e.quit = true
	e.message = e.config.Messages.Goodbye
	e.addToHistory("quit", pos, pos, true)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the complete action history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last action taken, or nil if there is none
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

func (e *GameEngine) addToHistory(action string, from, to Position, success bool) {
	e.history = append(e.history, MoveHistoryEntry{
		Action:       action,
		FromPosition: from,
		ToPosition:   to,
		Score:        e.player.Score,
		Timestamp:    time.Now().Unix(),
		Success:      success,
		MoveNumber:   len(e.history) + 1,
	})
}
