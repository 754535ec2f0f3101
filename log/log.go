package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps the process-wide zerolog logger.
type Logger struct {
	zerolog.Logger
}

// New builds a logger at level ("trace".."error"); pretty switches to console output.
func New(level string, pretty bool) Logger {
	return NewWithWriter(os.Stdout, level, pretty)
}

// NewWithWriter is New writing to w.
func NewWithWriter(w io.Writer, level string, pretty bool) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return Logger{Logger: l}
}
