package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithUser returns a logger with user context fields attached.
// Use this for all logging performed on behalf of an authenticated user.
func WithUser(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

// WithStore returns a logger scoped to a specific local history store.
func WithStore(logger *slog.Logger, storeKey string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("store_key", storeKey)
}
