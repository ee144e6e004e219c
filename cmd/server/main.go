/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the labor compliance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load YAML config (flags override the file, file overrides defaults)
  3. Initialize SQLite store
  4. Create API handler with the compliance and payroll engines
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config path (default: labor.yml; missing file uses defaults)
  -port    HTTP server port (overrides config when set)
  -db      SQLite database path (overrides config when set)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/labor.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with an explicit config file
  ./server -config="./deploy/labor.yml"

SEE ALSO:
  - config/config.go: Config file shape and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harvestrow/labor-engine/api"
	"github.com/harvestrow/labor-engine/config"
	"github.com/harvestrow/labor-engine/payroll"
	"github.com/harvestrow/labor-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "labor.yml", "YAML config path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	agFloor, err := cfg.AgriculturalFloor()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	nonAgFloor, err := cfg.NonAgriculturalFloor()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, payroll.Floors{
		Agricultural:    agFloor,
		NonAgricultural: nonAgFloor,
	})

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Server.Port)
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
