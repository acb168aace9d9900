/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the agency ledger server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load configuration
  2. Build the zap logger
  3. Open the transaction store (memory or SQLite)
  4. Create API handler, preload the configured scenario
  5. Start the ledger audit scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional)
  -port    HTTP server port, overrides the config
  -db      SQLite database path, overrides the config and selects the
           sqlite backend. Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the audit scheduler
  4. Close database connection

EXAMPLES:
  ./server -db="./data/agency.db"
  ./server -config=agency.yaml -port=3000
  AGENCY_SCENARIO=sample-agency ./server
  # A scenario wipes the database: -db plus AGENCY_SCENARIO resets the file
  # on every boot. Clients and bookings live in memory, so rows kept from a
  # previous run only surface in /api/transactions/export.

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/agency-ledger/agency"
	"github.com/warp/agency-ledger/agency/store"
	"github.com/warp/agency-ledger/api"
	"github.com/warp/agency-ledger/config"
	"github.com/warp/agency-ledger/logging"
	"github.com/warp/agency-ledger/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Ledger.Backend = config.BackendSQLite
		cfg.Ledger.DSN = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	txStore, closeStore, err := openStore(cfg.Ledger)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := api.NewHandler(txStore, api.WithLogger(log))
	if cfg.Scenario != "" {
		if cfg.Ledger.Backend == config.BackendSQLite && cfg.Ledger.DSN != sqlite.MemoryDSN {
			log.Warn("scenario preload resets the persisted ledger",
				zap.String("scenario", cfg.Scenario),
				zap.String("dsn", cfg.Ledger.DSN))
		}
		if err := handler.LoadScenario(context.Background(), cfg.Scenario); err != nil {
			return fmt.Errorf("preload scenario: %w", err)
		}
	}

	if cfg.Audit.Enabled {
		scheduler := api.NewAuditScheduler(handler, cfg.Audit.Schedule, log)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("ledger_backend", cfg.Ledger.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(cfg config.LedgerConfig) (agency.Store, func(), error) {
	if cfg.Backend == config.BackendSQLite {
		s, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, func() { s.Close() }, nil
	}
	return store.NewMemory(), func() {}, nil
}
