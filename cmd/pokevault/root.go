package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/pokevault/internal/config"
	"github.com/erazemk/pokevault/internal/db"
)

var (
	// Global flags
	configPath string
	dbURL      string
	logPath    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "pokevault",
	Short: "PokéVault - track a Pokémon card collection and its market value",
	Long: `PokéVault keeps a personal card collection and wishlist, searches the
Pokémon price tracker and refreshes stored prices at most once a day.

Configuration is read from defaults, then the --config TOML file, then the
environment (DATABASE_URL, SUPABASE_JWT_SECRET, POKEMON_PRICE_API_KEY, ...),
then command line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVarP(&dbURL, "db", "d", "", "database URL or SQLite path (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", "", "also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig reads configuration and applies global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.URL = dbURL
	}
	if flags.Changed("log") {
		cfg.Log.File = logPath
	}
	if flags.Changed("log-level") {
		if err := cfg.Log.Level.UnmarshalText([]byte(logLevel)); err != nil {
			return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
	}
	return cfg, nil
}

// openDatabase opens and migrates the configured database.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, db.Dialect, error) {
	dialect := db.DialectOf(cfg.Database.URL)

	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		return nil, dialect, err
	}
	if err := db.Migrate(ctx, database, dialect); err != nil {
		database.Close()
		return nil, dialect, err
	}
	return database, dialect, nil
}
