package testhelpers

import (
	"io"
	"log/slog"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
)

// NewLogger creates a debug level logger writing to logSink, typically a [Writer].
func NewLogger(logSink io.Writer) *slog.Logger {
	return logging.New(logSink, slog.LevelDebug)
}
