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

	"github.com/tphummel/crowpanel/internal/db"
	"github.com/tphummel/crowpanel/internal/handlers"
	"github.com/tphummel/crowpanel/internal/logging"
	"github.com/tphummel/crowpanel/internal/metrics"
	"github.com/tphummel/crowpanel/internal/profiles"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if cfg.HTTP.Token == "" {
		return errors.New("http.token is required (set CROWPANEL_HTTP_TOKEN)")
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	srv := newStatusServer(cfg.HTTP.Addr, cfg.HTTP.Token, database, store, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := shutdown(srv); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newStatusServer builds the status API with its own metrics registry.
func newStatusServer(addr, token string, database *db.DB, store *profiles.Store, logger *slog.Logger) *http.Server {
	h := &handlers.Handler{
		DB:       database,
		Store:    store,
		Version:  version,
		Commit:   commit,
		Gatherer: metrics.NewRegistry(store),
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handlers.NewMux(h, token, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
