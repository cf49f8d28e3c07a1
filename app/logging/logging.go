// Package logging builds the application's slog logger from configuration
// and the extra handlers listed in the settings.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Debug bool
	Level string
	// File enables a rotating JSON log file when non-empty.
	File string
	// Output defaults to os.Stdout.
	Output io.Writer
	// Extra handlers receive every record alongside the stream handler.
	Extra []slog.Handler
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger fanning out to the stream handler, the optional log
// file and every extra handler, in that order.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(opts.Level)
	if opts.Debug {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.Debug}

	var stream slog.Handler
	if opts.Debug {
		stream = slog.NewTextHandler(out, hopts)
	} else {
		stream = slog.NewJSONHandler(out, hopts)
	}

	handlers := []slog.Handler{stream}
	if opts.File != "" {
		handlers = append(handlers, slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     28,
		}, hopts))
	}
	handlers = append(handlers, opts.Extra...)

	if len(handlers) == 1 {
		return slog.New(stream)
	}
	return slog.New(slogmulti.Fanout(handlers...))
}
