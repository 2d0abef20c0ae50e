package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet/db"
	"fleet/db/migrations"
	"fleet/internal/auth"
	"fleet/internal/blob"
	"fleet/internal/config"
	"fleet/internal/handlers"
	"fleet/internal/logger"
	"fleet/internal/metrics"
	"fleet/internal/refnum"
	"fleet/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireServe(); err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrations.Run(ctx, conn.DB, cfg.Database.Driver, log); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rec := metrics.New()
	opts := []repository.Option{repository.WithLogger(log), repository.WithMetrics(rec)}
	if cfg.Refnum == "clock" {
		opts = append(opts, repository.WithMinter(refnum.ClockMinter{}))
	}
	repos := repository.New(db.NewStorage(conn), opts...)

	files, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	h := handlers.NewHandler(repos, files, log)
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handlers.NewRouter(h, handlers.RouterConfig{
			Authenticate: auth.New(cfg.Auth.JWTSecret).Middleware,
			Metrics:      rec,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("db", cfg.Database.Driver),
			zap.String("blob", cfg.Blob.Driver),
			zap.String("refnum", cfg.Refnum))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
