package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metaheuristics/internal/server"
	"github.com/cwbudde/metaheuristics/internal/store"
)

var (
	serveAddr    string
	serveDataDir string
	serveDB      string
	maxJobs      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP optimization server",
	Long: `Starts an HTTP server that accepts optimization jobs, streams their
progress over SSE and persists records for resuming. Records go to the
filesystem by default; --db switches to a SQLite database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Base directory for records and traces")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path for records (empty = filesystem store)")
	serveCmd.Flags().IntVar(&maxJobs, "max-jobs", 4, "Maximum number of concurrently running jobs")

	rootCmd.AddCommand(serveCmd)
}

func openRecordStore() (store.Store, error) {
	if serveDB != "" {
		return store.NewSQLiteStore(serveDB)
	}
	return store.NewFSStore(serveDataDir)
}

func runServe(cmd *cobra.Command, args []string) error {
	recordStore, err := openRecordStore()
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer recordStore.Close()

	srv := server.NewServer(serveAddr, recordStore, serveDataDir, maxJobs)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
