package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamahiro5/iotlab-edge/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "unknown defaults to info", input: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.New(&buf, "info", "text")
		l.Info("bridge connected", "host", "mqtt.example.com")

		out := buf.String()
		assert.Contains(t, out, "level=INFO")
		assert.Contains(t, out, "bridge connected")
		assert.Contains(t, out, "host=mqtt.example.com")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := logger.New(&buf, "info", "json")
		l.Info("bridge connected")

		out := buf.String()
		assert.Contains(t, out, `"level":"INFO"`)
		assert.Contains(t, out, `"msg":"bridge connected"`)
	})
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.New(&buf, "warn", "text")

	l.Info("suppressed")
	assert.Empty(t, buf.String())

	l.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNop(t *testing.T) {
	t.Parallel()

	l := logger.Nop()
	require.NotNil(t, l)
	l.Error("discarded")
}
