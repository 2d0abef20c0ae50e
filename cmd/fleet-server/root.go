package main

import (
	"context"
	"fmt"
	"time"

	"fleet/db"
	"fleet/db/migrations"
	"fleet/internal/auth"
	"fleet/internal/config"
	"fleet/internal/logger"
	"fleet/internal/permissions"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fleet-server",
		Short:         "Fleet management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return rootCmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return fmt.Errorf("FLEET_DB_DSN (or POSTGRES_CONN) is not set")
			}
			log, err := logger.New(cfg.Env, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()
			return migrate(cmd.Context(), cfg, log)
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrations.Run(ctx, conn.DB, cfg.Database.Driver, log); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func newTokenCmd() *cobra.Command {
	var (
		role, company, user string
		ttl                 time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for development.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("FLEET_JWT_SECRET is not set")
			}
			r, err := permissions.ParseRole(role)
			if err != nil {
				return err
			}
			token, err := auth.New(cfg.Auth.JWTSecret).Issue(permissions.Principal{
				UserID:    user,
				Role:      r,
				CompanyID: company,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(permissions.Viewer), "role of the token holder")
	cmd.Flags().StringVar(&company, "company", "", "company id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("company")
	cmd.MarkFlagRequired("user")
	return cmd
}
