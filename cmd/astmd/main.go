// Command astmd runs the ASTM daemon: a TCP server engine accepting
// instrument connections, an admin HTTP API surfacing session history
// and Prometheus metrics, and (optionally) an MCP tool server over
// stdio for the same data. All three run as sibling goroutines
// supervised by internal/run, shut down together on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/labconn/astm/internal/demo"
	"github.com/labconn/astm/internal/run"
	"github.com/labconn/astm/pkg/admin"
	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/server"
	"github.com/labconn/astm/pkg/astm/transport"
	"github.com/labconn/astm/pkg/mcpserver"
	"github.com/labconn/astm/pkg/store"

	_ "github.com/labconn/astm/docs"
)

// @title        ASTM Admin API
// @version      1.0
// @description  Session audit and health surface for the ASTM daemon

// @host      localhost:8080
// @BasePath  /

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "path to the session/profile database (default: ~/.config/astm/astm.db)")
	listenAddr := flag.String("listen", ":1201", "address the ASTM TCP server listens on")
	adminAddr := flag.String("admin", ":8080", "address the admin HTTP API listens on")
	enableMCP := flag.Bool("mcp", false, "also serve the MCP tool surface over stdio")
	flag.Parse()

	ctx := context.Background()

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}
	log.Info().Str("path", db.Path()).Msg("database opened")

	metrics := admin.NewMetrics()
	sessions := db.Sessions()

	listener, err := transport.ListenTCP("tcp", *listenAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind ASTM listener")
	}

	supervisor := run.New()

	supervisor.Add(run.TCPListener(listener, func(ctx context.Context, conn *transport.TCPTransport) {
		handleConnection(ctx, conn, sessions, metrics)
	}))

	router := admin.NewRouter(sessions, metrics)
	httpServer := &http.Server{Addr: *adminAddr, Handler: router.Handler()}
	supervisor.Add(run.HTTPServer(httpServer))

	if *enableMCP {
		mcp := mcpserver.NewServer(sessions, metrics)
		supervisor.Add(func(ctx context.Context) error {
			errCh := make(chan error, 1)
			go func() { errCh <- mcp.ServeStdio() }()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				// ServeStdio has no cancellation hook; its read on stdin
				// is left to die with the process rather than block
				// shutdown of the other components.
				return nil
			}
		})
	}

	log.Info().
		Str("astm_addr", listener.Addr().String()).
		Str("admin_addr", *adminAddr).
		Bool("mcp", *enableMCP).
		Msg("astmd starting")

	if err := supervisor.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("astmd exited with error")
	}
}

// handleConnection owns one accepted instrument connection end to end:
// it opens a session row keyed by the engine's correlation ID, runs the
// server engine against a logging dispatcher, and closes the session
// with the outcome the engine reports.
func handleConnection(ctx context.Context, conn *transport.TCPTransport, sessions store.SessionStore, metrics *admin.Metrics) {
	cfg := astm.NewServerConfig("", 0)
	engine := server.New(cfg, conn)
	id := engine.ConnectionID()

	peer := conn.RemoteAddr().String()
	if err := sessions.Open(ctx, id, "server", peer); err != nil {
		log.Error().Err(err).Str("conn_id", id).Msg("failed to open session record")
	}
	metrics.OpenSession()
	defer metrics.CloseSession()

	dispatcher := demo.NewLoggingDispatcher(log.With().Str("conn_id", id).Logger())

	runErr := engine.Run(ctx, dispatcher)

	var accepted int
	for _, n := range dispatcher.Counts {
		accepted += n
	}
	for i := 0; i < accepted; i++ {
		if err := sessions.RecordAccepted(ctx, id); err != nil {
			log.Error().Err(err).Str("conn_id", id).Msg("failed to record accepted record")
			break
		}
	}
	metrics.RecordsProcessed.Add(float64(accepted))

	outcome := store.OutcomeCompleted
	lastErr := ""
	switch {
	case runErr == nil:
		metrics.SessionsCompleted.Inc()
	case errors.Is(runErr, astm.ErrRejected):
		outcome = store.OutcomeRejected
		lastErr = runErr.Error()
		metrics.SessionsRejected.Inc()
		metrics.FramesRejected.Inc()
	case errors.Is(runErr, astm.ErrTimeout):
		outcome = store.OutcomeTimeout
		lastErr = runErr.Error()
		metrics.SessionsTimedOut.Inc()
	default:
		outcome = store.OutcomeError
		lastErr = runErr.Error()
	}

	if err := sessions.Close(ctx, id, outcome, lastErr); err != nil {
		log.Error().Err(err).Str("conn_id", id).Msg("failed to close session record")
	}
}
