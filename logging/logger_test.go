package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logLevel  slog.Level
		wantWrite bool
	}{
		{name: "info logs info", level: "info", logLevel: slog.LevelInfo, wantWrite: true},
		{name: "warn drops info", level: "WARN", logLevel: slog.LevelInfo},
		{name: "debug logs debug", level: "debug", logLevel: slog.LevelDebug, wantWrite: true},
		{name: "off by default", level: "", logLevel: slog.LevelError},
		{name: "unknown is off", level: "verbose", logLevel: slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger("log-summary", &buf, tt.level)
			logger.Log(context.Background(), tt.logLevel, "hello", "key", "value")
			if tt.wantWrite {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
				assert.Contains(t, buf.String(), `"source":"log-summary"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
