// Package api provides the HTTP REST API for minewalk.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions             create a session ({"config_id", "seed"})
//   - GET    /api/sessions             list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/unified     several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET    /api/sessions/{id}        session details
//   - DELETE /api/sessions/{id}        delete a session
//
// Game:
//   - GET  /api/sessions/{id}/state      current state
//   - POST /api/sessions/{id}/move       {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move  {"moves": ["r", "e", "d"]}
//   - POST /api/sessions/{id}/expose     expose the player's square
//   - POST /api/sessions/{id}/quit       end the game
//   - POST /api/sessions/{id}/reset      fresh board
//   - GET  /api/sessions/{id}/history    ?page=1&limit=20&order=desc
//
// Configuration:
//   - GET  /api/configs         list configurations
//   - GET  /api/configs/{name}  one configuration (fixed layouts are hidden)
//   - POST /api/configs         save a configuration
//
// Other:
//   - GET /ws?session={id}  WebSocket updates for a session
//   - GET /health
//
// Errors are returned as {"error": "..."}: 404 for unknown sessions or
// configs, 400 for bad directions and invalid configs, 409 when the game is
// already over.
//
// Client is the matching service.GameService implementation that talks to
// a running server; the MCP tools use it when attached to a server.
package api
