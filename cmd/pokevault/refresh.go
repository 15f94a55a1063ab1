package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/erazemk/pokevault/internal/config"
	"github.com/erazemk/pokevault/internal/pricing"
	"github.com/erazemk/pokevault/internal/refresh"
	"github.com/erazemk/pokevault/internal/store"
)

var (
	refreshUser  string
	refreshForce bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh stored prices for one user",
	Long: `Refresh looks up the current market price of every card and wishlist
entry the user owns. It does nothing if the last refresh was less than
refresh.interval ago, unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVarP(&refreshUser, "user", "u", "", "user id to refresh (required)")
	refreshCmd.Flags().BoolVarP(&refreshForce, "force", "f", false, "ignore the refresh interval")
	refreshCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	if _, err := uuid.Parse(refreshUser); err != nil {
		return fmt.Errorf("invalid --user %q: %w", refreshUser, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cleanup, err := setupLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	database, _, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	client, err := newPriceClient(cfg)
	if err != nil {
		return err
	}
	job := newRefreshJob(cfg, database, client)

	result, err := job.Refresh(ctx, refreshUser, refreshForce)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}

func newPriceClient(cfg *config.Config) (*pricing.Client, error) {
	client, err := pricing.New(pricing.Options{
		BaseURL:   cfg.Pricing.BaseURL,
		APIKey:    cfg.Pricing.APIKey,
		Timeout:   cfg.Pricing.Timeout.D(),
		CacheSize: cfg.Pricing.CacheSize,
		CacheTTL:  cfg.Pricing.CacheTTL.D(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating price client: %w", err)
	}
	if cfg.Pricing.APIKey == "" {
		slog.Warn("no price API key configured; lookups may be rejected")
	}
	return client, nil
}

// newRefreshJob builds the gated refresh job over database.
func newRefreshJob(cfg *config.Config, database *sql.DB, client *pricing.Client) *refresh.Job {
	job := &refresh.Job{
		Store:         refresh.SQLStore{DB: database},
		Quoter:        client,
		Interval:      cfg.Refresh.Interval.D(),
		LookupTimeout: cfg.Pricing.Timeout.D(),
		Logger:        slog.Default().With("component", "refresh"),
	}
	if cfg.Refresh.SharedWatermark {
		job.SharedScope = store.GlobalScope
	}
	return job
}
