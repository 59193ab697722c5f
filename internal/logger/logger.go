package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// ForApp tags every event with the application name and environment.
func ForApp(log zerolog.Logger, name, env string) zerolog.Logger {
	ctx := log.With().Str("app", name)
	if env != "" {
		ctx = ctx.Str("env", env)
	}
	return ctx.Logger()
}
