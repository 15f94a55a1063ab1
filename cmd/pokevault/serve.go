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

	"github.com/erazemk/pokevault/internal/api"
	"github.com/erazemk/pokevault/internal/auth"
	"github.com/erazemk/pokevault/internal/config"
	"github.com/erazemk/pokevault/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	database, dialect, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "dialect", dialect)

	client, err := newPriceClient(cfg)
	if err != nil {
		return err
	}
	job := newRefreshJob(cfg, database, client)

	// Photos stays a nil interface when storage is off so uploads answer 503.
	var photos api.PhotoStore
	if s3cfg := cfg.Storage.S3(); s3cfg.Enabled() {
		bucket, err := storage.New(ctx, s3cfg)
		if err != nil {
			return err
		}
		photos = bucket
		slog.Info("photo storage enabled", "bucket", s3cfg.Bucket)
	}

	handler := api.NewRouter(api.Options{
		DB:             database,
		Auth:           auth.NewAuthenticator(newVerifier(cfg), cfg.Auth.ReadOnly),
		Search:         client,
		Refresher:      job,
		Photos:         photos,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newVerifier prefers local HMAC verification and falls back to asking the
// auth provider.
func newVerifier(cfg *config.Config) auth.Verifier {
	if cfg.Auth.JWTSecret != "" {
		return auth.JWTVerifier{Secret: cfg.Auth.JWTSecret}
	}
	return auth.NewRemoteVerifier(cfg.Auth.URL, cfg.Auth.AnonKey, cfg.Auth.Timeout.D())
}
