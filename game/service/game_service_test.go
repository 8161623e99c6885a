package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/minewalk/game/engine"
	"github.com/wricardo/minewalk/game/service"
	"github.com/wricardo/minewalk/game/session"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	created  int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		m.created++
		id = fmt.Sprintf("t%03d", m.created)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         eng.GetConfig(),
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
	saved   map[string]*engine.GameConfig
}

// testConfig is a 4x4 board with mines at (1,1) and (3,3)
func testConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:        "test",
		Description: "Test configuration",
		Width:       4,
		Height:      4,
		Mines:       2,
		Layout: []string{
			"....",
			".*..",
			"....",
			"...*",
		},
		Messages: engine.DefaultMessages(),
	}
}

func NewMockConfigManager() *MockConfigManager {
	random := engine.DefaultGameConfig()
	random.Name = "random"

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test":   testConfig(),
			"random": random,
		},
		saved: make(map[string]*engine.GameConfig),
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Width:       config.Width,
			Height:      config.Height,
			Mines:       config.Mines,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ConfigID < result[j].ConfigID })
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["test"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.saved[name] = config
	return nil
}

func newTestService(t *testing.T) (service.GameService, *service.SessionInfo) {
	t.Helper()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())
	info, err := svc.CreateSession(context.Background(), "test", 0)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, info
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantErr    error
	}{
		{"create with default config", "", "test", nil},
		{"create with specific config", "random", "random", nil},
		{"create with unknown config", "nonexistent", "", service.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.configName, 0)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() error = %v", err)
			}
			if info.ConfigName != tt.wantConfig {
				t.Errorf("Expected config name '%s', got '%s'", tt.wantConfig, info.ConfigName)
			}
			if info.GameState == nil || !info.GameState.Alive {
				t.Error("Expected a live game state")
			}
		})
	}
}

func TestGameService_CreateSession_HidesLayout(t *testing.T) {
	_, info := newTestService(t)

	if info.GameConfig == nil {
		t.Fatal("Expected game config in session info")
	}
	if len(info.GameConfig.Layout) != 0 {
		t.Error("Expected the fixed layout to be hidden from clients")
	}
	for _, row := range info.GameState.Grid {
		for _, sq := range row {
			if sq.Mine {
				t.Errorf("Expected mine at (%d,%d) to be hidden", sq.X, sq.Y)
			}
		}
	}
}

func TestGameService_CreateSession_Seed(t *testing.T) {
	ctx := context.Background()
	configs := NewMockConfigManager()
	svc := service.NewGameService(NewMockSessionManager(), configs)

	a, err := svc.CreateSession(ctx, "random", 4242)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	b, _ := svc.CreateSession(ctx, "random", 4242)

	if a.GameState.Seed != 0 {
		t.Errorf("Expected seed to be hidden during play, got %d", a.GameState.Seed)
	}
	if a.GameConfig.Seed != 0 {
		t.Errorf("Expected config seed to be hidden, got %d", a.GameConfig.Seed)
	}
	if configs.configs["random"].Seed != 0 {
		t.Error("Expected the shared config to keep its own seed")
	}

	qa, _ := svc.Quit(ctx, a.ID)
	qb, _ := svc.Quit(ctx, b.ID)
	if qa.GameState.Seed != 4242 || qb.GameState.Seed != 4242 {
		t.Errorf("Expected seed 4242 after the game, got %d and %d", qa.GameState.Seed, qb.GameState.Seed)
	}
	for y := range qa.GameState.Grid {
		for x := range qa.GameState.Grid[y] {
			if qa.GameState.Grid[y][x].Mine != qb.GameState.Grid[y][x].Mine {
				t.Fatalf("Expected identical boards for the same seed, differ at (%d,%d)", x, y)
			}
		}
	}
}

func TestGameService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(session.NewManager(), NewMockConfigManager())

	info, err := svc.CreateSession(ctx, "test", 0)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8*50)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				var err error
				switch (n + j) % 4 {
				case 0:
					_, err = svc.GetSession(ctx, info.ID)
				case 1:
					_, err = svc.GetGameState(ctx, info.ID)
				case 2:
					_, err = svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{})
				default:
					_, err = svc.ListSessions(ctx)
				}
				if err != nil {
					errs <- err
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent reads: %v", err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.LastAccessedAt.Before(info.LastAccessedAt) {
		t.Errorf("Expected access time to move forward, got %v before %v", got.LastAccessedAt, info.LastAccessedAt)
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	tests := []struct {
		name      string
		sessionID string
		direction string
		reset     bool
		wantErr   error
		success   bool
		event     string
	}{
		{"wall at top", info.ID, "up", false, nil, false, service.EventWall},
		{"valid move right", info.ID, "right", false, nil, true, service.EventMove},
		{"valid move with reset", info.ID, "down", true, nil, true, service.EventMove},
		{"invalid session", "nonexistent", "up", false, service.ErrSessionNotFound, false, ""},
		{"invalid direction", info.ID, "diagonal", false, engine.ErrInvalidDirection, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Move(ctx, tt.sessionID, tt.direction, tt.reset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if result.Success != tt.success {
				t.Errorf("Expected success=%v, got %v", tt.success, result.Success)
			}
			if result.Move == nil {
				t.Fatal("Expected move outcome")
			}
			last := result.Events[len(result.Events)-1]
			if last.Type != tt.event {
				t.Errorf("Expected last event '%s', got '%s'", tt.event, last.Type)
			}
			if tt.reset && result.Events[0].Type != service.EventReset {
				t.Errorf("Expected reset event first, got '%s'", result.Events[0].Type)
			}
		})
	}

	// After reset and a single step down the player is at (0,1)
	state, _ := svc.GetGameState(ctx, info.ID)
	if state.PlayerPos != (engine.Position{X: 0, Y: 1}) {
		t.Errorf("Expected player at (0,1), got %v", state.PlayerPos)
	}
}

func TestGameService_Expose(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	svc.Move(ctx, info.ID, "right", false)

	result, err := svc.Expose(ctx, info.ID)
	if err != nil {
		t.Fatalf("Expose failed: %v", err)
	}
	if !result.Success || result.Expose == nil || result.Expose.HitMine {
		t.Fatalf("Expected safe exposure, got %+v", result)
	}
	if result.Expose.AdjacentMines != 1 {
		t.Errorf("Expected 1 adjacent mine, got %d", result.Expose.AdjacentMines)
	}
	if result.GameState.Score != 1 {
		t.Errorf("Expected score 1, got %d", result.GameState.Score)
	}
	if result.Events[0].Type != service.EventExpose {
		t.Errorf("Expected expose event, got '%s'", result.Events[0].Type)
	}

	// Repeat exposure does not score again
	result, _ = svc.Expose(ctx, info.ID)
	if result.GameState.Score != 1 {
		t.Errorf("Expected score to stay 1, got %d", result.GameState.Score)
	}

	svc.Move(ctx, info.ID, "down", false)
	result, err = svc.Expose(ctx, info.ID)
	if err != nil {
		t.Fatalf("Expose failed: %v", err)
	}
	if result.Success || !result.Expose.HitMine {
		t.Error("Expected to hit the mine at (1,1)")
	}
	if !result.GameState.GameOver {
		t.Error("Expected game over")
	}
	if len(result.Events) != 2 || result.Events[0].Type != service.EventMine || result.Events[1].Type != service.EventGameOver {
		t.Errorf("Expected mine and game_over events, got %+v", result.Events)
	}

	if _, err := svc.Move(ctx, info.ID, "left", false); !errors.Is(err, engine.ErrPlayerDead) {
		t.Errorf("Expected ErrPlayerDead after death, got %v", err)
	}
	if _, err := svc.Expose(ctx, info.ID); !errors.Is(err, engine.ErrPlayerDead) {
		t.Errorf("Expected ErrPlayerDead after death, got %v", err)
	}
}

func TestGameService_Quit(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	result, err := svc.Quit(ctx, info.ID)
	if err != nil {
		t.Fatalf("Quit failed: %v", err)
	}
	if !result.GameState.Quit || !result.GameState.GameOver {
		t.Error("Expected quit game to be over")
	}
	if result.Message != "Goodbye." {
		t.Errorf("Expected goodbye message, got '%s'", result.Message)
	}

	if _, err := svc.Quit(ctx, info.ID); !errors.Is(err, engine.ErrPlayerDead) {
		t.Errorf("Expected ErrPlayerDead on second quit, got %v", err)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !state.Alive || state.Quit {
		t.Error("Expected reset to revive the player")
	}
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		actions       []string
		wantExecuted  int
		wantStopCode  string
		wantScore     int
		wantGameOver  bool
		wantEndPos    engine.Position
		wantTruncated bool
	}{
		{
			name:         "walk and expose",
			actions:      []string{"r", "e", "r", "e"},
			wantExecuted: 4,
			wantScore:    2,
			wantEndPos:   engine.Position{X: 2, Y: 0},
		},
		{
			name:         "stop after mine",
			actions:      []string{"right", "down", "expose", "left"},
			wantExecuted: 3,
			wantStopCode: service.StopGameOver,
			wantGameOver: true,
			wantEndPos:   engine.Position{X: 1, Y: 1},
		},
		{
			name:         "invalid action",
			actions:      []string{"d", "jump", "d"},
			wantExecuted: 1,
			wantStopCode: service.StopInvalidAction,
			wantEndPos:   engine.Position{X: 0, Y: 1},
		},
		{
			name:          "truncated",
			actions:       make([]string, service.MaxBulkMoves+10),
			wantExecuted:  service.MaxBulkMoves,
			wantScore:     1,
			wantTruncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, info := newTestService(t)

			actions := tt.actions
			if tt.wantTruncated {
				for i := range actions {
					actions[i] = "e"
				}
			}

			result, err := svc.BulkMove(ctx, info.ID, actions, false)
			if err != nil {
				t.Fatalf("BulkMove failed: %v", err)
			}

			if result.MovesExecuted != tt.wantExecuted {
				t.Errorf("Expected %d executed, got %d", tt.wantExecuted, result.MovesExecuted)
			}
			if result.StopReasonCode != tt.wantStopCode {
				t.Errorf("Expected stop code '%s', got '%s'", tt.wantStopCode, result.StopReasonCode)
			}
			if result.ScoreDelta != tt.wantScore {
				t.Errorf("Expected score delta %d, got %d", tt.wantScore, result.ScoreDelta)
			}
			if result.GameOver != tt.wantGameOver {
				t.Errorf("Expected game over %v, got %v", tt.wantGameOver, result.GameOver)
			}
			if result.EndPos != tt.wantEndPos {
				t.Errorf("Expected end position %v, got %v", tt.wantEndPos, result.EndPos)
			}
			if result.Truncated != tt.wantTruncated {
				t.Errorf("Expected truncated %v, got %v", tt.wantTruncated, result.Truncated)
			}
			if len(result.Steps) != result.MovesExecuted {
				t.Errorf("Expected one step per executed action, got %d", len(result.Steps))
			}
		})
	}

	svc, _ := newTestService(t)
	if _, err := svc.BulkMove(ctx, "missing", []string{"r"}, false); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	// 5 actions: right, expose, right, expose, up (wall)
	svc.BulkMove(ctx, info.ID, []string{"r", "e", "r", "e", "u"}, false)

	tests := []struct {
		name        string
		opts        service.HistoryOptions
		wantLen     int
		wantFirst   string
		wantPages   int
		wantHasNext bool
	}{
		{"defaults newest first", service.HistoryOptions{}, 5, "up", 1, false},
		{"ascending", service.HistoryOptions{Order: "asc"}, 5, "right", 1, false},
		{"first page of two", service.HistoryOptions{Limit: 3, Order: "asc"}, 3, "right", 2, true},
		{"second page", service.HistoryOptions{Page: 2, Limit: 3, Order: "asc"}, 2, "expose", 2, false},
		{"second page desc", service.HistoryOptions{Page: 2, Limit: 3}, 2, "expose", 2, false},
		{"past the end", service.HistoryOptions{Page: 5, Limit: 3}, 0, "", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetMoveHistory failed: %v", err)
			}
			if len(history.Moves) != tt.wantLen {
				t.Fatalf("Expected %d moves, got %d", tt.wantLen, len(history.Moves))
			}
			if tt.wantLen > 0 && history.Moves[0].Action != tt.wantFirst {
				t.Errorf("Expected first action '%s', got '%s'", tt.wantFirst, history.Moves[0].Action)
			}
			if history.TotalMoves != 5 {
				t.Errorf("Expected 5 total moves, got %d", history.TotalMoves)
			}
			if history.TotalPages != tt.wantPages {
				t.Errorf("Expected %d pages, got %d", tt.wantPages, history.TotalPages)
			}
			if history.HasNext != tt.wantHasNext {
				t.Errorf("Expected HasNext=%v, got %v", tt.wantHasNext, history.HasNext)
			}
		})
	}
}

func TestGameService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	second, _ := svc.CreateSession(ctx, "random", 0)

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}

	got, err := svc.GetSession(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ConfigName != "random" {
		t.Errorf("Expected config 'random', got '%s'", got.ConfigName)
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := svc.DeleteSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	configs, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(configs))
	}

	config, err := svc.LoadConfig(ctx, "test")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Layout != nil {
		t.Error("Expected layout to be hidden")
	}

	if _, err := svc.LoadConfig(ctx, "missing"); !errors.Is(err, service.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	bad := engine.DefaultGameConfig()
	bad.Mines = 100
	if err := svc.SaveConfig(ctx, "bad", bad); !errors.Is(err, engine.ErrInvalidMineCount) {
		t.Errorf("Expected ErrInvalidMineCount, got %v", err)
	}
	if err := svc.SaveConfig(ctx, "good", engine.DefaultGameConfig()); err != nil {
		t.Errorf("SaveConfig failed: %v", err)
	}
}
