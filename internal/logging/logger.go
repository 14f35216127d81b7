package logging

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide slog logger: JSON records on stdout.
// cmd/server later swaps in a MultiHandler that adds the DB sink.
func Setup() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}
