// Package logging builds the process logger. Output always goes to stderr:
// in stdio transport mode, stdout belongs to the protocol stream.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing human-readable lines to stderr at the given
// level. Unknown level names fall back to info.
func New(level string) zerolog.Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter is New with an explicit sink, for tests.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
