package engine

import (
	"errors"
	"strings"
	"testing"
)

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:        "engine-test",
		Description: "Configuration for engine integration tests",
		Width:       4,
		Height:      4,
		Mines:       2,
		Layout: []string{
			"....",
			"..*.",
			"....",
			"...*",
		},
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()

	if state.Width != 4 || state.Height != 4 {
		t.Errorf("Expected 4x4 board, got %dx%d", state.Width, state.Height)
	}
	if state.PlayerPos != (Position{0, 0}) {
		t.Errorf("Expected player at (0,0), got %v", state.PlayerPos)
	}
	if !state.Alive || state.GameOver {
		t.Error("Expected a live game")
	}
	if state.Mines != 2 {
		t.Errorf("Expected 2 mines, got %d", state.Mines)
	}
	if state.SafeRemaining != 14 {
		t.Errorf("Expected 14 safe squares, got %d", state.SafeRemaining)
	}
	if state.Message != DefaultMessages().Welcome {
		t.Errorf("Expected welcome message, got '%s'", state.Message)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	if _, err := NewEngine(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil config, got %v", err)
	}

	config := DefaultGameConfig()
	config.Mines = 13
	if _, err := NewEngine(config); !errors.Is(err, ErrInvalidMineCount) {
		t.Errorf("Expected ErrInvalidMineCount, got %v", err)
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()
	state := engine.GetState()

	if state.Width != DefaultWidth || state.Height != DefaultHeight {
		t.Errorf("Expected %dx%d board, got %dx%d", DefaultWidth, DefaultHeight, state.Width, state.Height)
	}
	if state.Mines != DefaultMines {
		t.Errorf("Expected %d mines, got %d", DefaultMines, state.Mines)
	}

	board := engine.Board()
	for _, c := range []Position{{0, 0}, {3, 0}, {0, 3}, {3, 3}} {
		if sq, _ := board.Square(c.X, c.Y); sq.HasMine {
			t.Errorf("Expected corner %v to be mine free", c)
		}
	}
}

func TestEngine_MoveAndExpose(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	if _, err := engine.Move(Right); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if _, err := engine.Move(Down); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	result, err := engine.Expose()
	if err != nil {
		t.Fatalf("Expose failed: %v", err)
	}

	// (1,1) neighbours (2,1)
	if result.HitMine {
		t.Error("Expected (1,1) to be safe")
	}
	if result.AdjacentMines != 1 {
		t.Errorf("Expected 1 adjacent mine, got %d", result.AdjacentMines)
	}
	if engine.GetScore() != 1 {
		t.Errorf("Expected score 1, got %d", engine.GetScore())
	}
	if engine.Message() != "Nice! There are 1 surrounding mines." {
		t.Errorf("Unexpected message '%s'", engine.Message())
	}
}

func TestEngine_MoveIntoWall(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	outcome, err := engine.Move(Up)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !outcome.HitWall {
		t.Error("Expected to hit the top wall")
	}
	if outcome.From != outcome.To {
		t.Errorf("Expected no movement, got %v -> %v", outcome.From, outcome.To)
	}
	if engine.Message() != DefaultMessages().Wall {
		t.Errorf("Expected wall message, got '%s'", engine.Message())
	}

	last := engine.GetLastMove()
	if last == nil || last.Success {
		t.Errorf("Expected an unsuccessful history entry, got %+v", last)
	}
}

func TestEngine_DeadPlayerRejectsActions(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	engine.Move(Right)
	engine.Move(Right)
	engine.Move(Down)

	result, err := engine.Expose()
	if err != nil {
		t.Fatalf("Expose failed: %v", err)
	}
	if !result.HitMine {
		t.Fatal("Expected to hit the mine at (2,1)")
	}
	if !engine.IsGameOver() {
		t.Error("Expected game over")
	}
	if engine.Message() != DefaultMessages().Boom {
		t.Errorf("Expected boom message, got '%s'", engine.Message())
	}

	if _, err := engine.Move(Left); !errors.Is(err, ErrPlayerDead) {
		t.Errorf("Expected ErrPlayerDead from Move, got %v", err)
	}
	if _, err := engine.Expose(); !errors.Is(err, ErrPlayerDead) {
		t.Errorf("Expected ErrPlayerDead from Expose, got %v", err)
	}
	if moves := engine.GetPossibleMoves(); len(moves) != 0 {
		t.Errorf("Expected no possible moves, got %v", moves)
	}

	historyLen := len(engine.GetMoveHistory())
	engine.Quit()
	if len(engine.GetMoveHistory()) != historyLen {
		t.Error("Expected Quit on a finished game to be ignored")
	}
}

func TestEngine_StateHidesMines(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	state := engine.GetState()
	for _, row := range state.Grid {
		for _, sq := range row {
			if sq.Mine {
				t.Errorf("Expected unexposed mine at (%d,%d) to be hidden", sq.X, sq.Y)
			}
		}
	}
	for _, row := range state.Rows {
		if strings.Contains(row, "+") {
			t.Errorf("Expected rendered rows to hide mines, got %q", row)
		}
	}
	if state.Seed != 0 {
		t.Errorf("Expected seed to be hidden while alive, got %d", state.Seed)
	}

	engine.Quit()

	state = engine.GetState()
	if !state.Quit || !state.GameOver {
		t.Error("Expected quit game to be over")
	}
	if !state.Grid[1][2].Mine || !state.Grid[3][3].Mine {
		t.Error("Expected mines to be revealed once the game is over")
	}
	if state.Message != DefaultMessages().Goodbye {
		t.Errorf("Expected goodbye message, got '%s'", state.Message)
	}
	if state.Seed != engine.Seed() {
		t.Errorf("Expected seed %d to be revealed once the game is over, got %d", engine.Seed(), state.Seed)
	}
}

func TestNewEngine_DoesNotModifyConfig(t *testing.T) {
	config := &GameConfig{Name: "shared", Width: 4, Height: 4, Mines: 3}

	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if config.Exclusion != "" || config.Messages.Wall != "" {
		t.Error("Expected caller's config to be left untouched")
	}
	if got := engine.GetConfig(); got == config || got.Exclusion != ExcludeCorners || got.Messages.Wall == "" {
		t.Error("Expected engine to keep its own defaulted copy")
	}
}

func TestEngine_GetPossibleMoves(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	moves := engine.GetPossibleMoves()
	if len(moves) != 2 {
		t.Fatalf("Expected 2 moves from the origin, got %v", moves)
	}
	if engine.CanMove(Up) || engine.CanMove(Left) {
		t.Error("Expected up and left to be blocked at the origin")
	}
	if !engine.CanMove(Down) || !engine.CanMove(Right) {
		t.Error("Expected down and right to be open at the origin")
	}
}

func TestEngine_History(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	engine.Move(Right)
	engine.Expose()
	engine.Move(Up)

	history := engine.GetMoveHistory()
	if len(history) != 3 {
		t.Fatalf("Expected 3 history entries, got %d", len(history))
	}

	expected := []struct {
		action  string
		success bool
	}{
		{"right", true},
		{"expose", true},
		{"up", false},
	}
	for i, e := range expected {
		if history[i].Action != e.action || history[i].Success != e.success {
			t.Errorf("Entry %d: expected %s/%v, got %s/%v",
				i+1, e.action, e.success, history[i].Action, history[i].Success)
		}
		if history[i].MoveNumber != i+1 {
			t.Errorf("Entry %d: expected move number %d, got %d", i+1, i+1, history[i].MoveNumber)
		}
	}
	if history[1].Score != 1 {
		t.Errorf("Expected score 1 recorded after expose, got %d", history[1].Score)
	}
}

func TestEngine_Reset(t *testing.T) {
	config := DefaultGameConfig()
	config.Seed = 1234
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	engine.Move(Right)
	engine.Expose()
	firstSeed := engine.Seed()

	state, err := engine.Reset()
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if state.PlayerPos != (Position{0, 0}) {
		t.Errorf("Expected player back at origin, got %v", state.PlayerPos)
	}
	if state.Score != 0 {
		t.Errorf("Expected score 0 after reset, got %d", state.Score)
	}
	if !state.Alive {
		t.Error("Expected player alive after reset")
	}
	if state.Mines != DefaultMines {
		t.Errorf("Expected %d mines after reset, got %d", DefaultMines, state.Mines)
	}
	if engine.Seed() == firstSeed {
		t.Error("Expected reset to draw a new seed")
	}
	if state.SafeRemaining != 16-DefaultMines {
		t.Errorf("Expected a fresh board, got %d safe remaining", state.SafeRemaining)
	}
}

func TestEngine_SeedIsDeterministic(t *testing.T) {
	build := func() *GameState {
		config := DefaultGameConfig()
		config.Width, config.Height, config.Mines = 8, 8, 12
		config.Seed = 2024
		engine, err := NewEngine(config)
		if err != nil {
			t.Fatalf("Failed to create engine: %v", err)
		}
		engine.Quit()
		return engine.GetState()
	}

	first, second := build(), build()
	for y := range first.Grid {
		for x := range first.Grid[y] {
			if first.Grid[y][x].Mine != second.Grid[y][x].Mine {
				t.Fatalf("Mine layout differs at (%d,%d) for the same seed", x, y)
			}
		}
	}

	// Resets are reproducible too
	a, _ := NewEngine(&GameConfig{Name: "a", Width: 6, Height: 6, Mines: 5, Seed: 77})
	b, _ := NewEngine(&GameConfig{Name: "b", Width: 6, Height: 6, Mines: 5, Seed: 77})
	a.Reset()
	b.Reset()
	if a.Seed() != b.Seed() {
		t.Errorf("Expected identical reset seeds, got %d and %d", a.Seed(), b.Seed())
	}
}
