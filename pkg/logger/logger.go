// Package logger configures the process-wide slog default and provides
// helpers for attaching component and ticket identifiers to log records.
package logger

import (
	"context"
	"log/slog"
	"os"
)

type contextKey struct{}

// Setup installs the default slog handler with the given level and format
// ("json" or "text").
func Setup(level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithTicketID stores a ticket identifier in the context so downstream log
// records can be correlated to one ticket's lifecycle.
func WithTicketID(ctx context.Context, ticketID string) context.Context {
	return context.WithValue(ctx, contextKey{}, ticketID)
}

// FromContext returns the default logger enriched with the ticket id from
// ctx, if one was attached.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if ticketID, ok := ctx.Value(contextKey{}).(string); ok {
		logger = logger.With("ticket_id", ticketID)
	}
	return logger
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
