// Command wipe deletes every row of every table. It is meant for local
// development databases only.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/set-night/julie/internal/repository"
)

type wipeConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
}

func main() {
	force := flag.Bool("force", false, "wipe even when APP_ENV is not development")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	var cfg wipeConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.AppEnv != "development" && !*force {
		slog.Error("refusing to wipe a non-development database, pass -force to override", "app_env", cfg.AppEnv)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.PoolOptions{MaxConns: 1})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.New(pool).WipeAll(ctx); err != nil {
		slog.Error("failed to wipe tables", "error", err)
		pool.Close()
		os.Exit(1)
	}
	slog.Info("all tables wiped")
}
