package util

import (
	"io"
	"log/slog"
	"os"
	"time"

	stdlog "log"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

type Logger = zerolog.Logger

// LogLevel represents available log levels
type LogLevel = int

// Log levels
const (
	TraceLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// InitializeLogger sets up the global logger writing to stderr, so that command
// output on stdout stays clean.
func InitializeLogger(level LogLevel) {
	InitializeLoggerTo(os.Stderr, level)
}

// InitializeLoggerTo is [InitializeLogger] with an explicit destination.
func InitializeLoggerTo(out io.Writer, level LogLevel) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ZerologLevel(level))

	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}

	ctx := zerolog.New(output).With().Timestamp()
	if level == TraceLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	log.Debug().Msg("Logger initialized")
}

// ZerologLevel maps a [LogLevel] onto zerolog, defaulting to info.
func ZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case TraceLevel:
		return zerolog.TraceLevel
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetLogger returns a configured logger for a specific component
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func NewSlogHandler(component string, lvl slog.Level) slog.Handler {
	opt := slogzerolog.Option{Level: lvl}

	zlog := GetLogger(component)
	opt.Logger = &zlog

	return opt.NewZerologHandler()
}

// NewLogLogger returns a stdlog.Logger that routes to zerolog through slog.
// Every line is emitted at lvl.
func NewLogLogger(component string, lvl LogLevel) *stdlog.Logger {
	var slvl slog.Level
	switch lvl {
	case TraceLevel, DebugLevel:
		slvl = slog.LevelDebug
	case WarnLevel:
		slvl = slog.LevelWarn
	case ErrorLevel:
		slvl = slog.LevelError
	default:
		slvl = slog.LevelInfo
	}
	handler := NewSlogHandler(component, slog.LevelDebug)

	return slog.NewLogLogger(handler, slvl)
}
