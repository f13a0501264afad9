package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/turbot/pipe-fittings/constants"
	"github.com/turbot/pipe-fittings/sanitize"
	"github.com/turbot/tailpipe-log-summary/context_values"
)

// EnvLogLevel is the environment variable holding the log level: debug, info, warn, error or off
const EnvLogLevel = "TAILPIPE_LOG_LEVEL"

func Initialize(appName string) {
	slog.SetDefault(NewLogger(appName, os.Stderr, os.Getenv(EnvLogLevel)))
}

// NewLogger returns a JSON logger that writes to w and sanitizes log entries
func NewLogger(appName string, w io.Writer, level string) *slog.Logger {
	leveler := parseLevel(level)
	if leveler == constants.LogLevelOff {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	}

	handlerOptions := &slog.HandlerOptions{
		Level: leveler,

		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			sanitized := sanitize.Instance.SanitizeKeyValue(a.Key, a.Value.Any())

			return slog.Attr{
				Key:   a.Key,
				Value: slog.AnyValue(sanitized),
			}
		},
	}
	// add app name as source
	return slog.New(slog.NewJSONHandler(w, handlerOptions)).With("source", appName)
}

// FromContext returns the default logger, tagged with the execution id when the context carries one
func FromContext(ctx context.Context) *slog.Logger {
	if id, err := context_values.ExecutionIdFromContext(ctx); err == nil {
		return slog.Default().With("execution_id", id)
	}
	return slog.Default()
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return constants.LogLevelOff
	}
}
