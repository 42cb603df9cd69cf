// Package logging configures zerolog for the tutorboard binaries.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Config struct {
	Level string
	// File receives the log instead of the console. The TUI needs this
	// because it owns the terminal.
	File    string
	NoColor bool
}

// Setup builds the root logger and sets the global level. The returned
// closer releases the log file, if one was opened.
func Setup(cfg Config, app string) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05", NoColor: cfg.NoColor}
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), closer, errors.Wrap(err, "create log directory")
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, errors.Wrap(err, "open log file")
		}
		out = zerolog.ConsoleWriter{Out: f, NoColor: true}
		closer = f
	}

	log := zerolog.New(out).With().Timestamp().Str("app", app).Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
