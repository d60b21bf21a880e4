// Package logging provides the structured JSON logger shared by all components.
//
// Every line is a single JSON object with a timestamp, a level and a message.
// Components derive child loggers with Component so log lines can be filtered by origin.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a JSON logger writing to w. Tests use it with a buffer.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// HTTPRequest records one handled HTTP request. Server errors are logged at
// error level, client errors at warn and everything else at info.
func HTTPRequest(log zerolog.Logger, requestID, method, path string, status int, latency time.Duration, ip, userAgent string) {
	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = log.Error()
	case status >= 400:
		ev = log.Warn()
	default:
		ev = log.Info()
	}

	ev.Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Int64("latency_ms", latency.Milliseconds()).
		Str("ip", ip).
		Str("user_agent", userAgent).
		Msgf("%s %s %d", method, path, status)
}
