/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cash custody ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config, apply flag overrides
  2. Initialize the selected store (sqlite, postgres, or memory)
  3. Create API handler with domain components
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides SQLITE_PATH)
           Use ":memory:" for an in-memory SQLite database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with file database
  JWT_SECRET=dev ./server -db="./data/custody.db"

  # Run against Postgres
  JWT_SECRET=dev STORE_DRIVER=postgres DATABASE_URL=postgres://... ./server

SEE ALSO:
  - config/config.go: Environment configuration
  - api/server.go: Router configuration
  - store/sqlite, store/postgres: Store implementations
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/custody-ledger/api"
	"github.com/warp/custody-ledger/config"
	"github.com/warp/custody-ledger/ledger"
	memstore "github.com/warp/custody-ledger/ledger/store"
	"github.com/warp/custody-ledger/store/postgres"
	"github.com/warp/custody-ledger/store/sqlite"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flag overrides
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.SQLitePath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.SQLitePath = *dbPath

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize store
	store, closer, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	// Initialize handler and router
	handler := api.NewHandler(store, ledger.SystemClock{})
	auth := api.NewAuthenticator(cfg.JWTSecret)
	router := api.NewRouter(handler, auth)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Custody ledger listening on http://localhost:%d (store: %s)", cfg.Port, cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openStore builds the configured ledger.TxStore. The returned closer is
// nil for the memory store.
func openStore(cfg config.Config) (ledger.TxStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverPostgres:
		s, err := postgres.New(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverMemory:
		return memstore.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
