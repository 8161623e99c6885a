// Package mcp exposes minewalk as Model Context Protocol tools for AI agents.
//
// Tools:
//   - create_session, list_sessions, get_session, delete_session
//   - game_state: board rows, score and position
//   - move: one step; walls leave the player in place
//   - bulk_move: several u/d/l/r/e actions in one call
//   - expose: reveal the square under the player
//   - quit, reset_game
//   - move_history: paginated action log
//   - list_configs: available boards
//   - describe_cell: what is known about one square and its neighbours
//   - game_instructions: rules and tips
//
// The tools call a service.GameService. The serve command hands it an
// api.Client pointed at its own REST API so that MCP moves are broadcast to
// WebSocket viewers; the stdio command can use either a remote server or an
// in-process service.
//
// Transport Modes:
//   - Stdio: Server.ServeStdio for local MCP clients
//   - HTTP: Server implements http.Handler, one JSON-RPC message per POST
//
// Usage:
//
//	srv := mcp.NewServer(gameService)
//	if err := srv.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
//
//	router.Handle("/mcp", srv)
package mcp
