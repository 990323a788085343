// ABOUTME: Serve command runs the HTTP chat and search surface
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/flowbrave/copilot/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server exposing the chat, streaming chat, and
advanced search endpoints.

Endpoints:
  POST /api/chat            sync chat, optionally guided
  POST /api/chat/stream     SSE streaming chat
  POST /api/search/advanced vector search with filters`,
		RunE: runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	logger := newLogger()
	eng, err := buildEngines(logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// expire abandoned guided sessions in the background
	eng.guided.Registry().StartSweeper(ctx, eng.cfg.SweepInterval, eng.cfg.SessionWindow, logger)

	srv := server.New(eng.answerer, eng.guided, eng.search, eng.store, logger)
	httpServer := &http.Server{
		Addr:    eng.cfg.HTTPAddr,
		Handler: srv.Handler(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", eng.cfg.HTTPAddr)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
