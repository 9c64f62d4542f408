package selector

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	With().Timestamp().Str("component", "selector").Logger().
	Level(zerolog.WarnLevel)

// SetLogger replaces the package logger. The default logs warnings and
// errors to stderr.
func SetLogger(l zerolog.Logger) {
	logger = l
}
