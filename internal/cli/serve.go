package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/internal/config"
	"github.com/engramlabs/engram/internal/engine"
	"github.com/engramlabs/engram/internal/executor"
	"github.com/engramlabs/engram/internal/server"
	"github.com/engramlabs/engram/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	// Env overrides
	if addr := os.Getenv("ENGRAM_BIND"); addr != "" {
		cfg.Server.Bind = addr
	}
	if port := os.Getenv("ENGRAM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = resolveDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng := engine.New(db, cfg)

	// Full rebalance once at startup so every record is served with a
	// current tier before the first request lands.
	if changed, err := eng.Rebalance(); err != nil {
		return fmt.Errorf("startup rebalance: %w", err)
	} else if changed > 0 {
		fmt.Fprintf(os.Stderr, "  rebalanced %d records\n", changed)
	}

	// Periodic rebalance off the hot request path.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Tiering.RebalanceSchedule, func() {
		if _, err := eng.Rebalance(); err != nil {
			log.Printf("scheduled rebalance: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule rebalance (%q): %w", cfg.Tiering.RebalanceSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	shell := executor.NewShell(cfg.Executor.Shell, time.Duration(cfg.Executor.Timeout)*time.Second)

	srv := server.New(eng, shell, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "engram serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  rebalance: %s\n", cfg.Tiering.RebalanceSchedule)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
