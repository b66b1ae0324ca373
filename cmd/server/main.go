package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/vancomm/minefield-server/internal/app"
	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/mines"
)

func main() {
	if err := config.Load(); err != nil {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}

	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, nil)
	if config.Development() {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		})
	}
	logger := slog.New(handler)
	mines.Log = logger.With(slog.String("component", "mines"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.New(logger).Start(ctx); err != nil {
		logger.Error("failed to start app", slog.Any("error", err))
		os.Exit(1)
	}
}
