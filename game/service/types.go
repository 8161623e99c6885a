package service

import (
	"time"

	"github.com/wricardo/minewalk/game/engine"
)

// Event types reported in results
const (
	EventMove     = "move"
	EventWall     = "wall"
	EventExpose   = "expose"
	EventMine     = "mine"
	EventQuit     = "quit"
	EventReset    = "reset"
	EventGameOver = "game_over"
)

// Stop reason codes for BulkMove
const (
	StopGameOver      = "game_over"
	StopInvalidAction = "invalid_action"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ActionResult contains the result of a single move, expose or quit
type ActionResult struct {
	Success       bool                 `json:"success"`
	GameState     *engine.GameState    `json:"game_state"`
	Message       string               `json:"message"`
	Events        []GameEvent          `json:"events,omitempty"`
	Move          *engine.MoveOutcome  `json:"move,omitempty"`
	Expose        *engine.ExposeResult `json:"expose,omitempty"`
	PossibleMoves []string             `json:"possible_moves,omitempty"`
}

// BulkMoveResult contains the result of several actions run in order
type BulkMoveResult struct {
	RequestedMoves int               `json:"requested_moves"`
	MovesExecuted  int               `json:"moves_executed"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	Steps          []StepInfo        `json:"steps,omitempty"`

	StoppedReason  string `json:"stopped_reason,omitempty"`
	StopReasonCode string `json:"stop_reason_code,omitempty"` // game_over|invalid_action
	StoppedOnMove  int    `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool   `json:"truncated,omitempty"`
	Limit          int    `json:"limit,omitempty"`

	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	ScoreDelta int             `json:"score_delta"`

	GameOver      bool     `json:"game_over"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed action in a bulk call
type StepInfo struct {
	Idx      int             `json:"idx"`
	Action   string          `json:"action"`
	From     engine.Position `json:"from"`
	To       engine.Position `json:"to"`
	HitWall  bool            `json:"hit_wall,omitempty"`
	HitMine  bool            `json:"hit_mine,omitempty"`
	Adjacent int             `json:"adjacent_mines,omitempty"`
	Score    int             `json:"score"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // move, wall, expose, mine, quit, reset, game_over
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Mines       int    `json:"mines"`
	Exclusion   string `json:"exclusion"`
}
