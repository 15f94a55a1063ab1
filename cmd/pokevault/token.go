package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/pokevault/internal/auth"
)

var (
	tokenUser  string
	tokenEmail string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed access token for local testing",
	Long: `Token signs an access token with auth.jwt_secret (SUPABASE_JWT_SECRET) that
the server accepts in the Authorization header.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required to sign tokens")
		}

		token, err := auth.GenerateToken(cfg.Auth.JWTSecret, tokenUser, tokenEmail, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "user id (UUID) to sign for (required)")
	tokenCmd.Flags().StringVarP(&tokenEmail, "email", "e", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.TokenExpiry, "token lifetime")
	tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
