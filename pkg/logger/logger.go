package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines structured logging interface
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
	With(args ...any) Logger
}

// ZerologLogger implements Logger on top of zerolog.
// Args are alternating key/value pairs, the same convention as log/slog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// New creates a new structured logger with the specified level and format ("json" or "console")
func New(level, format string) Logger {
	var out io.Writer = os.Stdout
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(w io.Writer, level string) Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	zl := zerolog.New(w).Level(logLevel).With().Timestamp().Logger()
	return &ZerologLogger{logger: zl}
}

// Info logs an informational message
func (l *ZerologLogger) Info(msg string, args ...any) {
	l.logger.Info().Fields(fields(args)).Msg(msg)
}

// Error logs an error message
func (l *ZerologLogger) Error(msg string, args ...any) {
	l.logger.Error().Fields(fields(args)).Msg(msg)
}

// Warn logs a warning message
func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Fields(fields(args)).Msg(msg)
}

// Debug logs a debug message
func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Fields(fields(args)).Msg(msg)
}

// With returns a new logger with the specified attributes
func (l *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{logger: l.logger.With().Fields(fields(args)).Logger()}
}

// Default returns a default logger instance
func Default() Logger {
	return New("info", "json")
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() Logger {
	return &ZerologLogger{logger: zerolog.Nop()}
}

// fields turns alternating key/value args into a zerolog field map.
// A trailing key without value is logged under "!BADKEY".
func fields(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	m := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			m["!BADKEY"] = args[i]
			continue
		}
		if err, isErr := args[i+1].(error); isErr {
			m[key] = err.Error()
			continue
		}
		m[key] = args[i+1]
	}
	return m
}
