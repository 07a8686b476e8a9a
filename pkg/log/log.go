package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Before Init it discards
// everything, so simulations driven from tests can log
// unconditionally without configuring output.
var Logger = zerolog.Nop()

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn or error
	JSONOutput bool
	Output     io.Writer // defaults to stderr
}

// Init configures the global logger. Unrecognized level strings fall
// back to info.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSONOutput {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithComponent returns a child logger scoped to one simulator
// component (coordinator, network, scheduler, reporter).
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithNetwork returns a child logger for one component of a named
// monitoring network. Several networks can run side by side on one
// simulation; the network field keeps their round traces apart.
func WithNetwork(component, network string) zerolog.Logger {
	return Logger.With().Str("component", component).Str("network", network).Logger()
}

// Errorf logs an error with a short message.
func Errorf(msg string, err error) {
	Logger.Error().Err(err).Msg(msg)
}
