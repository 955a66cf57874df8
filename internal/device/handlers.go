package device

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/tamahiro5/iotlab-edge/internal/journal"
	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// MessageHandler consumes documents the bridge pushes down to the device.
// Handlers run on the MQTT receive path and must not block.
type MessageHandler interface {
	HandleConfig(ctx context.Context, upd domain.ConfigUpdate)
	HandleCommand(ctx context.Context, cmd domain.Command)
}

// Recorder journals publish attempts. A nil Recorder disables journaling.
type Recorder interface {
	Append(ctx context.Context, e *journal.Entry) error
}

// LogHandler is the default MessageHandler: it logs received documents and
// nothing more.
type LogHandler struct {
	log *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(log *slog.Logger) *LogHandler {
	return &LogHandler{log: log}
}

// HandleConfig logs a received configuration document.
func (h *LogHandler) HandleConfig(_ context.Context, upd domain.ConfigUpdate) {
	h.log.Info("config received",
		"bytes", len(upd.Payload),
		"payload", printable(upd.Payload),
	)
}

// HandleCommand logs a received command.
func (h *LogHandler) HandleCommand(_ context.Context, cmd domain.Command) {
	h.log.Info("command received",
		"subfolder", cmd.Subfolder,
		"bytes", len(cmd.Payload),
		"payload", printable(cmd.Payload),
	)
}

// printable renders a payload for logging, hiding binary noise.
func printable(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return "(binary)"
}
