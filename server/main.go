package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/goyalsons/hierarchy"
	"github.com/goyalsons/hierarchy/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var store hierarchy.Store = postgres.New(pool)

	app := newApp(store)

	slog.Info("listening", "addr", cfg.ListenAddr())
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		slog.Error("listen", "error", err)
		os.Exit(1)
	}
}
