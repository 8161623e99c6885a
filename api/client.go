package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/minewalk/game/config"
	"github.com/wricardo/minewalk/game/engine"
	"github.com/wricardo/minewalk/game/service"
)

// Client implements service.GameService against a running REST server.
// Going through the server keeps WebSocket viewers in sync with moves made
// by other frontends.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ service.GameService = (*Client)(nil)

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Error is a non-2xx response from the server
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// knownErrors are matched against server messages so callers can use
// errors.Is across the wire
var knownErrors = []error{
	service.ErrSessionNotFound,
	service.ErrConfigNotFound,
	engine.ErrPlayerDead,
	engine.ErrInvalidDirection,
	engine.ErrInvalidMineCount,
	engine.ErrInvalidBoardSize,
	engine.ErrInvalidConfig,
	config.ErrInvalidConfig,
}

// Unwrap returns the sentinel the server message names, falling back to one
// implied by the status code
func (e *Error) Unwrap() error {
	for _, known := range knownErrors {
		if strings.Contains(e.Message, known.Error()) {
			return known
		}
	}
	switch e.StatusCode {
	case http.StatusNotFound:
		return service.ErrSessionNotFound
	case http.StatusConflict:
		return engine.ErrPlayerDead
	}
	return nil
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		msg, ok := errResp["error"]
		if !ok {
			msg = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID string, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// CreateSession creates a session on the server
func (c *Client) CreateSession(ctx context.Context, configName string, seed int64) (*service.SessionInfo, error) {
	body := map[string]interface{}{}
	if configName != "" {
		body["config_id"] = configName
	}
	if seed != 0 {
		body["seed"] = seed
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches one session
func (c *Client) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions lists sessions, oldest first
func (c *Client) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	var response struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions?sort=created&order=asc", nil, &response); err != nil {
		return nil, err
	}
	return response.Sessions, nil
}

// DeleteSession deletes a session
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.apiCall(ctx, "DELETE", sessionPath(sessionID, ""), nil, nil)
}

// Move moves the player one square
func (c *Client) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.ActionResult, error) {
	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkMove runs several actions in one request
func (c *Client) BulkMove(ctx context.Context, sessionID string, actions []string, reset bool) (*service.BulkMoveResult, error) {
	body := map[string]interface{}{
		"moves": actions,
		"reset": reset,
	}
	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Expose exposes the player's square
func (c *Client) Expose(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/expose"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Quit ends the game
func (c *Client) Quit(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/quit"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reset starts a fresh game in the session
func (c *Client) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var response struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return nil, err
	}
	return response.State, nil
}

// GetGameState fetches the current state
func (c *Client) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetMoveHistory fetches one page of history
func (c *Client) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", fmt.Sprint(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", fmt.Sprint(opts.Limit))
	}
	if opts.Order != "" {
		query.Set("order", opts.Order)
	}

	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// ListConfigs lists the server's configurations
func (c *Client) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// LoadConfig fetches one configuration
func (c *Client) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	var cfg engine.GameConfig
	if err := c.apiCall(ctx, "GET", "/api/configs/"+url.PathEscape(configName), nil, &cfg); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
		}
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig stores a configuration on the server
func (c *Client) SaveConfig(ctx context.Context, configName string, cfg *engine.GameConfig) error {
	body := struct {
		ConfigID string `json:"config_id"`
		*engine.GameConfig
	}{configName, cfg}
	return c.apiCall(ctx, "POST", "/api/configs", body, nil)
}
