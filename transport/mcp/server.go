package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/minewalk/game/engine"
	"github.com/wricardo/minewalk/game/service"
)

const (
	serverName    = "minewalk"
	serverVersion = "1.0.0"
)

// Server exposes a GameService as MCP tools
type Server struct {
	service   service.GameService
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server backed by gameService. Pass an api.Client
// to drive a remote server, or the in-process service directly.
func NewServer(gameService service.GameService) *Server {
	s := &Server{service: gameService}
	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`minewalk - MCP Interface

GAME OBJECTIVE:
Walk a hidden minefield. Expose squares to score points; exposing a mine ends the game.

AVAILABLE TOOLS:
- create_session: Start a new game (optional config_id and seed)
- list_sessions / get_session / delete_session: Manage sessions
- game_state: Current board
- move: Single step (up/down/left/right); walls leave you in place
- bulk_move: Several actions at once (u/d/l/r/e)
- expose: Reveal the square you stand on
- quit: End the game
- reset_game: New board, same config
- move_history: Past actions
- list_configs: Available board configurations
- describe_cell: What is known about one square
- game_instructions: Full rules

NOTE: The 'intent' parameter on move/bulk_move is for explaining your reasoning; it is not processed.`),
	)

	s.registerTools()
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Session management
	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session with optional config selection"),
		mcp.WithString("config_id", mcp.Description("Config to use (see list_configs); default config when omitted")),
		mcp.WithNumber("seed", mcp.Description("Fix the mine placement for a reproducible game")),
	), s.handleCreateSession)

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
	), s.handleListSessions)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionParam(),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Delete a session"),
		sessionParam(),
	), s.handleDeleteSession)

	// Game operations
	s.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the current game state"),
		sessionParam(),
	), s.handleGameState)

	s.mcpServer.AddTool(mcp.NewTool("move",
		mcp.WithDescription("Move the player one square. Moving into the board edge leaves the player in place."),
		sessionParam(),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("up", "down", "left", "right"), mcp.Description("Direction to move")),
		mcp.WithString("intent", mcp.Description("Brief explanation of the intent behind this move")),
		mcp.WithBoolean("reset", mcp.Description("Reset before moving")),
	), s.handleMove)

	s.mcpServer.AddTool(mcp.NewTool("bulk_move",
		mcp.WithDescription(fmt.Sprintf("Execute up to %d actions in sequence. Actions: u, d, l, r, e (expose) or the full words. Stops at the first invalid action or when the game ends.", service.MaxBulkMoves)),
		sessionParam(),
		mcp.WithArray("moves", mcp.Required(), mcp.Items(map[string]interface{}{"type": "string"}), mcp.Description("Actions to run")),
		mcp.WithString("intent", mcp.Description("Brief explanation of the intent behind this sequence")),
		mcp.WithBoolean("reset", mcp.Description("Reset before moving")),
	), s.handleBulkMove)

	s.mcpServer.AddTool(mcp.NewTool("expose",
		mcp.WithDescription("Expose the square under the player. A mine ends the game; a safe square reports its adjacent mine count."),
		sessionParam(),
	), s.handleExpose)

	s.mcpServer.AddTool(mcp.NewTool("quit",
		mcp.WithDescription("End the current game"),
		sessionParam(),
	), s.handleQuit)

	s.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Start a new board with the session's configuration"),
		sessionParam(),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool("move_history",
		mcp.WithDescription("Get action history for a session"),
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("Page number")),
		mcp.WithNumber("limit", mcp.Description("Items per page")),
		mcp.WithString("order", mcp.Enum("asc", "desc"), mcp.Description("Sort order")),
	), s.handleMoveHistory)

	s.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available game configurations"),
	), s.handleListConfigs)

	s.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the game rules and playing tips"),
	), s.handleGameInstructions)

	s.mcpServer.AddTool(mcp.NewTool("describe_cell",
		mcp.WithDescription("Describe what is known about one square (0-based x/y)"),
		sessionParam(),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row")),
	), s.handleDescribeCell)
}

// MCPServer returns the underlying MCP server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over stdin/stdout until the input closes
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP answers one JSON-RPC message per POST request
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := s.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// Notifications get no reply
		w.WriteHeader(http.StatusAccepted)
		return
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseData)
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argBool(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// argInt accepts JSON numbers and numeric strings
func argInt(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func argStrings(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// Tool handlers

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID := argString(args, "config_id")
	if configID == "" {
		configID = argString(args, "config_name")
	}
	seed, _ := argInt(args, "seed")

	session, err := s.service.CreateSession(ctx, configID, seed)
	if err != nil {
		return toolError(err), nil
	}

	logrus.WithField("session", session.ID).Debug("MCP session created")

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.service.ListSessions(ctx)
	if err != nil {
		return toolError(err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", len(sessions))
	for _, session := range sessions {
		status := "playing"
		score := 0
		if session.GameState != nil {
			score = session.GameState.Score
			if session.GameState.GameOver {
				status = "over"
			}
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, %s, Created: %s)\n",
			session.ID, session.ConfigName, score, status, session.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.service.GetSession(ctx, argString(arguments(request), "session_id"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(session)), nil
}

func (s *Server) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(arguments(request), "session_id")
	if err := s.service.DeleteSession(ctx, sessionID); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s deleted", sessionID)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.service.GetGameState(ctx, argString(arguments(request), "session_id"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatGameState(state)), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	result, err := s.service.Move(ctx, argString(args, "session_id"), argString(args, "direction"), argBool(args, "reset"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatActionResult(result)), nil
}

func (s *Server) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := argString(args, "session_id")

	moves := argStrings(args, "moves")
	if len(moves) == 0 {
		return mcp.NewToolResultError("moves must not be empty"), nil
	}

	result, err := s.service.BulkMove(ctx, sessionID, moves, argBool(args, "reset"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, result)), nil
}

func (s *Server) handleExpose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.Expose(ctx, argString(arguments(request), "session_id"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatActionResult(result)), nil
}

func (s *Server) handleQuit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.Quit(ctx, argString(arguments(request), "session_id"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatActionResult(result)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.service.Reset(ctx, argString(arguments(request), "session_id"))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Game reset successfully\n\n" + formatGameState(state)), nil
}

func (s *Server) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	opts := service.HistoryOptions{Order: argString(args, "order")}
	if page, ok := argInt(args, "page"); ok {
		opts.Page = int(page)
	}
	if limit, ok := argInt(args, "limit"); ok {
		opts.Limit = int(limit)
	}

	history, err := s.service.GetMoveHistory(ctx, argString(args, "session_id"), opts)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatHistory(history)), nil
}

func (s *Server) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := s.service.ListConfigs(ctx)
	if err != nil {
		return toolError(err), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Mines: %d, Exclusion: %s\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Width, cfg.Height, cfg.Mines, cfg.Exclusion)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (s *Server) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	x, okX := argInt(args, "x")
	y, okY := argInt(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	state, err := s.service.GetGameState(ctx, argString(args, "session_id"))
	if err != nil {
		return toolError(err), nil
	}

	if x < 0 || int(x) >= state.Width || y < 0 || int(y) >= state.Height {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Board is %dx%d (x 0-%d, y 0-%d)",
			x, y, state.Width, state.Height, state.Width-1, state.Height-1)), nil
	}

	return mcp.NewToolResultText(describeSquare(state, int(x), int(y))), nil
}

// describeSquare reports what a player may know about one square
func describeSquare(state *engine.GameState, x, y int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Square (%d,%d)\n", x, y)

	if state.PlayerPos.X == x && state.PlayerPos.Y == y {
		b.WriteString("• The player is standing here\n")
	}

	sq := state.Grid[y][x]
	switch {
	case sq.Exposed && sq.Mine:
		b.WriteString("• Exposed: MINE\n")
	case sq.Exposed:
		fmt.Fprintf(&b, "• Exposed: safe, %d adjacent mine(s)\n", sq.AdjacentMines)
	case state.GameOver && sq.Mine:
		b.WriteString("• Unexposed: was a mine\n")
	case state.GameOver:
		b.WriteString("• Unexposed: was safe\n")
	default:
		b.WriteString("• Unexposed: unknown\n")
	}

	var neighbours []string
	for _, d := range engine.Directions {
		nx, ny := x, y
		switch d {
		case engine.Up:
			ny--
		case engine.Down:
			ny++
		case engine.Left:
			nx--
		case engine.Right:
			nx++
		}
		if nx < 0 || ny < 0 || nx >= state.Width || ny >= state.Height {
			neighbours = append(neighbours, fmt.Sprintf("%s: wall", d))
			continue
		}
		n := state.Grid[ny][nx]
		switch {
		case n.Exposed && n.Mine:
			neighbours = append(neighbours, fmt.Sprintf("%s: mine", d))
		case n.Exposed:
			neighbours = append(neighbours, fmt.Sprintf("%s: safe(%d)", d, n.AdjacentMines))
		default:
			neighbours = append(neighbours, fmt.Sprintf("%s: unknown", d))
		}
	}
	b.WriteString("• Neighbours: " + strings.Join(neighbours, ", ") + "\n")

	return b.String()
}

const instructions = `minewalk - Instructions

OBJECTIVE:
The board hides a number of mines. Walk around and expose squares to score
one point per newly exposed safe square. Exposing a mine ends the game.

RULES:
• You start at the top-left corner (0,0); x grows to the right, y grows down
• Moves are one square up, down, left or right
• Moving into the edge of the board is a wall: you stay where you are
• Walking over a square does not expose it; only "expose" does
• Exposing a safe square tells you how many of its 4 neighbours (up, down,
  left, right) hold mines; diagonals do not count
• Exposing the same safe square twice scores nothing
• The origin is never mined; depending on the config other squares
  (corners or edges) may be kept mine-free too
• The game ends when you hit a mine or quit; reset starts a fresh board

BOARD LEGEND (rows):
• [o ] - the player on an unexposed square
• [ x] - exposed safe square
• [ *] - exposed mine
• [ +] - unexposed mine, shown only after the game ends

STRATEGY TIPS:
• A safe square with 0 adjacent mines makes all 4 neighbours safe to expose
• Use describe_cell to see what is known around a square
• bulk_move accepts "e" for expose, e.g. ["r", "e", "d", "e"]
• bulk_move stops at the first invalid action or when the game ends
`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Position: (%d,%d) | Score: %d | Mines: %d | Safe left: %d | Moves: %d\n\n",
		state.PlayerPos.X, state.PlayerPos.Y, state.Score, state.Mines, state.SafeRemaining, state.TotalMoves)

	for _, row := range state.Rows {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if state.GameOver {
		if state.Quit {
			b.WriteString("\n👋 QUIT")
		} else {
			b.WriteString("\n💀 GAME OVER")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder

	switch {
	case result.Move != nil && result.Move.HitWall:
		fmt.Fprintf(&b, "✗ Wall: stayed at (%d,%d)\n", result.Move.From.X, result.Move.From.Y)
	case result.Move != nil:
		fmt.Fprintf(&b, "✓ Moved (%d,%d)→(%d,%d)\n", result.Move.From.X, result.Move.From.Y, result.Move.To.X, result.Move.To.Y)
	case result.Expose != nil && result.Expose.HitMine:
		b.WriteString("💥 Mine!\n")
	case result.Expose != nil:
		fmt.Fprintf(&b, "✓ Safe: %d adjacent mine(s)", result.Expose.AdjacentMines)
		if !result.Expose.FirstExposure {
			b.WriteString(" (already exposed, no points)")
		}
		b.WriteString("\n")
	}

	formatEvents(&b, result.Events)

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Executed %d/%d actions", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on action %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "(%d,%d)→(%d,%d) score %+d\n",
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y, result.ScoreDelta)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, step := range result.Steps {
			b.WriteString(formatStepLine(step))
		}
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(step service.StepInfo) string {
	var note string
	switch {
	case step.HitMine:
		note = "MINE"
	case step.HitWall:
		note = "wall"
	case step.Action == "expose":
		note = fmt.Sprintf("safe(%d)", step.Adjacent)
	}
	return fmt.Sprintf("%2d. %-6s (%d,%d)→(%d,%d) score=%d %s\n",
		step.Idx, step.Action, step.From.X, step.From.Y, step.To.X, step.To.Y, step.Score, note)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s (%d,%d)→(%d,%d) score=%d %s\n",
			move.MoveNumber, move.Action,
			move.FromPosition.X, move.FromPosition.Y,
			move.ToPosition.X, move.ToPosition.Y,
			move.Score, status)
	}
	if history.HasNext {
		b.WriteString("\n(more on the next page)\n")
	}
	return b.String()
}
