// Package logger configures the process-wide zerolog logger. It is the error
// channel of the service and is kept apart from the access log.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefault gives a readable stderr logger before configuration is loaded.
func SetDefault() {
	log.Logger = New(os.Stderr, zerolog.InfoLevel)
}

// Setup replaces the global logger using the configured level. An unknown
// level falls back to info.
func Setup(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = New(os.Stderr, lvl)
}

// New builds a logger on w. Terminals get the console writer, everything else JSON.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
