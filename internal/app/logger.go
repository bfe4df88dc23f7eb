package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger tuned for the environment:
// prod gets JSON logs at INFO, everything else text logs at DEBUG.
func NewLogger(env string) *slog.Logger {
	if env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
