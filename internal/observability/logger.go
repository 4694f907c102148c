package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger that stamps trace/span ids onto every
// record when a span is active.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewTraceHandler(handler))
}
