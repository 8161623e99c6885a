package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/minewalk/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a display name, used when a session
// was created from the default config
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// getSession looks a session up and marks it accessed. Any lookup failure
// is reported as ErrSessionNotFound. The access time is written, so callers
// must hold s.mu for writing; readers under RLock then see a stable value.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// publicConfig hides the fixed mine layout and the seed from clients; either
// one gives the mine positions away
func publicConfig(config *engine.GameConfig) *engine.GameConfig {
	if config == nil {
		return nil
	}
	cfg := *config
	cfg.Layout = nil
	cfg.Seed = 0
	return &cfg
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     publicConfig(sess.Config),
	}
}

// CreateSession creates a new game session. A non-zero seed overrides the
// config's seed for this session only.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed int64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var base *engine.GameConfig
	var err error
	if configName != "" {
		base, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		base = s.configs.GetDefault()
	}

	// Sessions get their own copy; cached configs are shared
	config := *base
	if seed != 0 {
		config.Seed = seed
	}

	sess, err := s.sessions.Create("", &config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.ConfigID = configName
	if sess.ConfigID == "" {
		sess.ConfigID = s.getConfigID(config.Name)
	}

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  sess.ConfigID,
		"seed":    sess.Engine.Seed(),
	}).Info("Game session created")

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return err
	}

	logrus.WithField("session", sessionID).Info("Game session deleted")
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*ActionResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		if _, err := sess.Engine.Reset(); err != nil {
			return nil, err
		}
		events = append(events, resetEvent(sess))
	}

	outcome, err := sess.Engine.Move(dir)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	events = append(events, moveEvents(dir, outcome, state.Message)...)

	logrus.WithFields(logrus.Fields{
		"session":   sess.ID,
		"direction": dir,
		"to":        fmt.Sprintf("(%d,%d)", outcome.To.X, outcome.To.Y),
		"wall":      outcome.HitWall,
	}).Debug("Move")

	return &ActionResult{
		Success:       !outcome.HitWall,
		GameState:     state,
		Message:       state.Message,
		Events:        events,
		Move:          &outcome,
		PossibleMoves: possibleMoves(sess.Engine),
	}, nil
}

// parseAction maps a bulk action to a direction or "expose"
func parseAction(action string) (engine.Direction, bool, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "e", "expose":
		return "", true, nil
	case "u":
		return engine.Up, false, nil
	case "d":
		return engine.Down, false, nil
	case "l":
		return engine.Left, false, nil
	case "r":
		return engine.Right, false, nil
	}
	dir, err := engine.ParseDirection(action)
	return dir, false, err
}

// BulkMove executes several moves and exposes in sequence. It stops at the
// first invalid action or when the game ends.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, actions []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(actions),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		if _, err := sess.Engine.Reset(); err != nil {
			return nil, err
		}
		result.Events = append(result.Events, resetEvent(sess))
	}

	start := sess.Engine.GetState()
	result.StartPos = start.PlayerPos
	startScore := start.Score

	if len(actions) > MaxBulkMoves {
		result.Truncated = true
		result.Limit = MaxBulkMoves
		actions = actions[:MaxBulkMoves]
	}

	for i, action := range actions {
		if sess.Engine.IsGameOver() {
			result.Success = false
			result.StoppedReason = "game is over"
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		dir, expose, err := parseAction(action)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("action %d invalid: %q", i+1, action)
			result.StopReasonCode = StopInvalidAction
			result.StoppedOnMove = i + 1
			break
		}

		from := sess.Engine.GetPlayerPosition()
		step := StepInfo{Idx: i + 1, From: from, To: from}

		if expose {
			exposed, err := sess.Engine.Expose()
			if err != nil {
				return nil, err
			}
			step.Action = "expose"
			step.HitMine = exposed.HitMine
			step.Adjacent = exposed.AdjacentMines
			result.Events = append(result.Events, exposeEvents(from, exposed, sess.Engine.Message())...)
		} else {
			outcome, err := sess.Engine.Move(dir)
			if err != nil {
				return nil, err
			}
			step.Action = string(dir)
			step.To = outcome.To
			step.HitWall = outcome.HitWall
			result.Events = append(result.Events, moveEvents(dir, outcome, sess.Engine.Message())...)
		}

		step.Score = sess.Engine.GetScore()
		result.Steps = append(result.Steps, step)
		result.MovesExecuted++
	}

	end := sess.Engine.GetState()
	result.GameState = end
	result.EndPos = end.PlayerPos
	result.ScoreDelta = end.Score - startScore
	result.GameOver = end.GameOver
	result.Message = end.Message
	result.PossibleMoves = possibleMoves(sess.Engine)

	logrus.WithFields(logrus.Fields{
		"session":  sess.ID,
		"executed": result.MovesExecuted,
		"stop":     result.StopReasonCode,
	}).Debug("Bulk move")

	return result, nil
}

// Expose exposes the square under the player
func (s *gameServiceImpl) Expose(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	pos := sess.Engine.GetPlayerPosition()
	exposed, err := sess.Engine.Expose()
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()

	entry := logrus.WithFields(logrus.Fields{
		"session":  sess.ID,
		"position": fmt.Sprintf("(%d,%d)", pos.X, pos.Y),
		"score":    state.Score,
	})
	if exposed.HitMine {
		entry.Info("Player hit a mine")
	} else {
		entry.WithField("adjacent", exposed.AdjacentMines).Debug("Square exposed")
	}

	return &ActionResult{
		Success:       !exposed.HitMine,
		GameState:     state,
		Message:       state.Message,
		Events:        exposeEvents(pos, exposed, state.Message),
		Expose:        &exposed,
		PossibleMoves: possibleMoves(sess.Engine),
	}, nil
}

// Quit ends the session's game
func (s *gameServiceImpl) Quit(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Engine.IsGameOver() {
		return nil, engine.ErrPlayerDead
	}

	sess.Engine.Quit()
	state := sess.Engine.GetState()

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"score":   state.Score,
	}).Info("Player quit")

	return &ActionResult{
		Success:   true,
		GameState: state,
		Message:   state.Message,
		Events: []GameEvent{{
			Type:      EventQuit,
			Message:   state.Message,
			Timestamp: time.Now(),
			Position:  state.PlayerPos,
		}},
	}, nil
}

// Reset resets a game session to a fresh board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := sess.Engine.Reset()
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"seed":    sess.Engine.Seed(),
	}).Info("Game reset")

	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	config, err := s.configs.LoadConfig(configName)
	if err != nil {
		return nil, err
	}
	return publicConfig(config), nil
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func possibleMoves(e *engine.GameEngine) []string {
	var moves []string
	for _, d := range e.GetPossibleMoves() {
		moves = append(moves, string(d))
	}
	return moves
}

func resetEvent(sess *Session) GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Game reset with a new board",
		Timestamp: time.Now(),
		Position:  sess.Engine.GetPlayerPosition(),
	}
}

func moveEvents(dir engine.Direction, outcome engine.MoveOutcome, message string) []GameEvent {
	if outcome.HitWall {
		return []GameEvent{{
			Type:      EventWall,
			Message:   message,
			Timestamp: time.Now(),
			Position:  outcome.From,
		}}
	}
	return []GameEvent{{
		Type:      EventMove,
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", dir, outcome.To.X, outcome.To.Y),
		Timestamp: time.Now(),
		Position:  outcome.To,
	}}
}

func exposeEvents(pos engine.Position, exposed engine.ExposeResult, message string) []GameEvent {
	if !exposed.HitMine {
		return []GameEvent{{
			Type:      EventExpose,
			Message:   message,
			Timestamp: time.Now(),
			Position:  pos,
		}}
	}
	return []GameEvent{
		{
			Type:      EventMine,
			Message:   message,
			Timestamp: time.Now(),
			Position:  pos,
		},
		{
			Type:      EventGameOver,
			Message:   "Game over",
			Timestamp: time.Now(),
			Position:  pos,
		},
	}
}
