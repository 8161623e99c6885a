// Package service provides the business logic layer for minewalk.
//
// The service package implements:
//   - Multi-session game management
//   - Move, expose, quit and reset processing with event reporting
//   - Paginated action history
//   - Access to the configuration directory
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (console, HTTP, WebSocket,
// MCP) and the game engine. Every call holds the service mutex, so an engine
// is never touched by two goroutines at once. Lookup failures surface as
// ErrSessionNotFound or ErrConfigNotFound; rule violations surface as the
// engine's sentinel errors.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "right", false)
//	result, err = gameService.Expose(ctx, info.ID)
//
// Session info and config responses never include a fixed mine layout, and
// game state hides unexposed mines until the game is over.
package service
