// Command minewalk plays the mine walking game.
//
// It supports three modes:
//  1. "play" (default) – an interactive game on the terminal, line based or full-screen with --tui
//  2. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  3. "mcp" – runs an MCP stdio server against a running server or an in-process game service
//
// Flags control host/port, config directory, board overrides, logging, and
// optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/minewalk/api"
	"github.com/wricardo/minewalk/game/config"
	"github.com/wricardo/minewalk/game/console"
	"github.com/wricardo/minewalk/game/engine"
	"github.com/wricardo/minewalk/game/service"
	"github.com/wricardo/minewalk/game/session"
	"github.com/wricardo/minewalk/game/tui"
	"github.com/wricardo/minewalk/transport/mcp"
	"github.com/wricardo/minewalk/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "minewalk"
)

const (
	defaultPort      = 8080
	defaultServerURL = "http://localhost:8080"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("Error loading .env file: %v", err)
		}
	} else {
		logrus.Debug("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "walk a hidden minefield one square at a time",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log output format (text or json)",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.Bool("debug"), cmd.String("log-format"))
		},
		DefaultCommand: "play",
		Commands: []*cli.Command{
			playCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

// setupLogging configures the global logrus logger
func setupLogging(debug bool, format string) error {
	switch format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", format)
	}

	logrus.SetOutput(os.Stderr)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetReportCaller(true)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// Play mode

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a game on the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "configuration name from the config directory"},
			&cli.IntFlag{Name: "width", Usage: "board width"},
			&cli.IntFlag{Name: "height", Usage: "board height"},
			&cli.IntFlag{Name: "mines", Usage: "number of mines"},
			&cli.Int64Flag{Name: "seed", Usage: "seed for a reproducible board"},
			&cli.StringFlag{Name: "exclusion", Usage: "squares kept free of random mines (corners or edges)"},
			&cli.BoolFlag{Name: "tui", Usage: "full-screen view with arrow key controls"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var opts playOptions
			opts.ConfigName = cmd.String("config")
			if cmd.IsSet("width") {
				opts.Width = intPtr(cmd.Int("width"))
			}
			if cmd.IsSet("height") {
				opts.Height = intPtr(cmd.Int("height"))
			}
			if cmd.IsSet("mines") {
				opts.Mines = intPtr(cmd.Int("mines"))
			}
			if cmd.IsSet("seed") {
				seed := cmd.Int64("seed")
				opts.Seed = &seed
			}
			if cmd.IsSet("exclusion") {
				exclusion := cmd.String("exclusion")
				opts.Exclusion = &exclusion
			}

			gameConfig, err := resolvePlayConfig(cmd.String("config-dir"), opts)
			if err != nil {
				return err
			}

			eng, err := engine.NewEngine(gameConfig)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"config": gameConfig.Name,
				"seed":   eng.Seed(),
			}).Debug("Starting console game")

			if cmd.Bool("tui") {
				return tui.New(eng).Run(ctx)
			}
			return console.New(eng, os.Stdin, os.Stdout).Run(ctx)
		},
	}
}

// playOptions holds the board overrides given on the command line. Nil
// fields keep the configured value.
type playOptions struct {
	ConfigName string
	Width      *int
	Height     *int
	Mines      *int
	Seed       *int64
	Exclusion  *string
}

func intPtr(v int) *int {
	return &v
}

// resolvePlayConfig loads the named (or default) configuration and applies
// the overrides. Without a config directory the built-in classic board is
// used.
func resolvePlayConfig(configDir string, opts playOptions) (*engine.GameConfig, error) {
	base := engine.DefaultGameConfig()

	manager, err := config.NewManager(configDir)
	switch {
	case err == nil && opts.ConfigName != "":
		if base, err = manager.LoadConfig(opts.ConfigName); err != nil {
			return nil, err
		}
	case err == nil:
		base = manager.GetDefault()
	case opts.ConfigName != "":
		return nil, err
	default:
		logrus.WithError(err).Debug("No config directory, using the built-in board")
	}

	// Configs are cached by the manager; work on a copy
	gameConfig := *base
	gameConfig.Layout = append([]string(nil), base.Layout...)

	if opts.Width != nil || opts.Height != nil || opts.Mines != nil {
		// A fixed layout no longer matches a resized board
		gameConfig.Layout = nil
	}
	if opts.Width != nil {
		gameConfig.Width = *opts.Width
	}
	if opts.Height != nil {
		gameConfig.Height = *opts.Height
	}
	if opts.Mines != nil {
		gameConfig.Mines = *opts.Mines
	}
	if opts.Seed != nil {
		gameConfig.Seed = *opts.Seed
	}
	if opts.Exclusion != nil {
		policy, err := engine.ParseExclusionPolicy(*opts.Exclusion)
		if err != nil {
			return nil, err
		}
		gameConfig.Exclusion = policy
	}

	gameConfig.FillDefaults()
	if err := engine.ValidateGameConfig(&gameConfig); err != nil {
		return nil, err
	}
	return &gameConfig, nil
}

// Serve mode

type serveOptions struct {
	Host            string
	Port            int
	Ngrok           bool
	NgrokAuth       string
	NgrokDomain     string
	CleanupInterval time.Duration
	SessionMaxAge   time.Duration
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "run the HTTP server with REST API, WebSocket, and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: defaultPort, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
			&cli.DurationFlag{Name: "cleanup-interval", Value: time.Hour, Usage: "how often stale sessions are pruned"},
			&cli.DurationFlag{Name: "session-max-age", Value: 24 * time.Hour, Usage: "sessions idle longer than this are deleted"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gameService, sessions, err := initializeServices(cmd.String("config-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			opts := serveOptions{
				Host:            cmd.String("host"),
				Port:            cmd.Int("port"),
				Ngrok:           cmd.Bool("ngrok"),
				NgrokAuth:       cmd.String("ngrok-auth"),
				NgrokDomain:     cmd.String("ngrok-domain"),
				CleanupInterval: cmd.Duration("cleanup-interval"),
				SessionMaxAge:   cmd.Duration("session-max-age"),
			}

			go sessionCleanupRoutine(ctx, sessions, opts.CleanupInterval, opts.SessionMaxAge)
			return runHTTPServer(ctx, gameService, opts)
		},
	}
}

// initializeServices wires the session and config managers into the game service
func initializeServices(configDir string) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	return service.NewGameService(sessionManager, configManager), sessionManager, nil
}

// newHandler combines the REST API with the /mcp endpoint. The MCP tools go
// through the REST API at baseURL so that their moves reach WebSocket clients.
func newHandler(apiServer *api.Server, baseURL string) http.Handler {
	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.Handle("/mcp", mcp.NewServer(api.NewClient(baseURL)))
	return router
}

// runHTTPServer serves the REST API, WebSocket hub, and /mcp endpoint until
// ctx is cancelled. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, opts serveOptions) error {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	handler := newHandler(api.NewServer(gameService, hub), "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logrus.WithFields(logrus.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("%s v%s listening on %s", AppName, Version, addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler, opts)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logrus.Info("Shutting down...")
	case err = <-serveErr:
		logrus.WithError(err).Error("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logrus.WithError(shutdownErr).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logrus.Info("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts serveOptions) {
	if opts.NgrokAuth == "" {
		logrus.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logrus.WithField("domain", opts.NgrokDomain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logrus.Info("Starting ngrok tunnel...")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		logrus.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	logrus.WithFields(logrus.Fields{
		"rest":      url + "/api",
		"websocket": url + "/ws?session=<session_id>",
		"mcp":       url + "/mcp",
	}).Infof("🚀 Ngrok tunnel established: %s", url)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logrus.WithError(err).Error("Ngrok server error")
	}
	logrus.Info("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				logrus.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// MCP stdio mode

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "run an MCP stdio server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "minewalk server to drive (default: " + defaultServerURL + " if it is running, else in-process)",
				Sources: cli.EnvVars("MINEWALK_SERVER_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gameService, err := selectMCPBackend(ctx, cmd.String("server-url"), cmd.String("config-dir"))
			if err != nil {
				return err
			}
			return mcp.NewServer(gameService).ServeStdio()
		},
	}
}

// selectMCPBackend returns an api.Client for serverURL, or for the default
// server if one answers, or else an in-process game service
func selectMCPBackend(ctx context.Context, serverURL, configDir string) (service.GameService, error) {
	if serverURL != "" {
		logrus.WithField("url", serverURL).Info("MCP stdio server using remote API")
		return api.NewClient(serverURL), nil
	}

	if serverAvailable(ctx, defaultServerURL) {
		logrus.WithField("url", defaultServerURL).Info("External API server found, using it for MCP")
		return api.NewClient(defaultServerURL), nil
	}

	logrus.Info("No external API server found, using in-process game service")
	gameService, _, err := initializeServices(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return gameService, nil
}

// serverAvailable reports whether a minewalk server answers its health check
func serverAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
