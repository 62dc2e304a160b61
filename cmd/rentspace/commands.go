package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rentspace/internal/cache"
	"rentspace/internal/config"
	"rentspace/internal/http/handlers"
	applog "rentspace/internal/log"
	"rentspace/internal/notify"
	"rentspace/internal/repos"
	"rentspace/internal/storage"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}
}

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and demo data, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = applog.L().Sync() }()
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			applog.L().Info("migrate.done", zap.String("db_dsn", cfg.DBDSN))
			return nil
		},
	}
}

func setup() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if _, err := applog.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return cfg, fmt.Errorf("init logging: %w", err)
	}
	cfg.LogSummary()
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	lg := applog.L()
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	c, closeCache := openCache(ctx, cfg)
	defer closeCache()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.Host != "" {
		mailer = notify.SMTPMailer{Host: cfg.SMTP.Host, Port: cfg.SMTP.Port, User: cfg.SMTP.User, Pass: cfg.SMTP.Pass, From: cfg.SMTP.From}
	}
	notifier, err := notify.NewNotifier(mailer, cfg.SupportEmail)
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}

	deps := handlers.NewDeps(db, cfg, handlers.Infra{Cache: c, Store: store, Notifier: notifier})
	app := handlers.NewApp(deps, handlers.DefaultLimits())

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listen", zap.String("addr", ":"+cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		lg.Info("shutdown")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

// openCache prefers redis and falls back to process memory when it is unset or unreachable.
func openCache(ctx context.Context, cfg config.Config) (cache.Store, func()) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), func() {}
	}
	r, err := cache.NewRedisStore(cfg.RedisURL, "rentspace:")
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = r.Ping(pingCtx)
		cancel()
		if err == nil {
			return r, func() { _ = r.Close() }
		}
		_ = r.Close()
	}
	applog.L().Warn("cache.redis.unavailable", zap.Error(err))
	return cache.NewMemoryStore(), func() {}
}

func openStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, func(), error) {
	if cfg.StorageBackend == "gridfs" {
		g, err := storage.NewGridFSStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MediaBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect gridfs: %w", err)
		}
		return g, func() { _ = g.Close(context.Background()) }, nil
	}
	l, err := storage.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("media dir: %w", err)
	}
	applog.L().Info("static", zap.String("route", "/media"), zap.String("dir", cfg.MediaDir))
	return l, func() {}, nil
}
