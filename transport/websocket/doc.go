// Package websocket pushes minewalk game updates to browser clients.
//
// A central Hub owns every connection. Clients join a session by connecting
// with ?session=<id>; messages for that session are fanned out to all of its
// clients and to nobody else. The hub keeps the last BacklogSize messages of
// each session and replays them to a client when it connects, so a late
// viewer sees the recent moves.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "mine", "data": {...}}
//
// Incoming client messages are read and discarded.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
//
// Concurrency:
//
// The session and backlog maps are only touched by the Run goroutine.
// Broadcast calls never block; when the queue is full the message is dropped
// and logged.
package websocket
