// Package session provides in-memory session management for minewalk.
//
// Manager stores one service.Session per game, each with its own engine,
// board and player. IDs are 4 hex characters drawn from crypto/rand unless
// the caller supplies one, and lookups ignore case.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
//
// The manager is safe for concurrent use. It does not serialize access to a
// session's engine; the service layer does that. Sessions are never written
// to disk and CleanupExpiredSessions drops the ones idle for too long.
package session
