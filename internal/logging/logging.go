// Package logging provides the process-wide zerolog sink.
//
// It is constructed once (see Init) and handed out as *zerolog.Logger
// values that long-lived components embed, the way bgpfix's pipe.Options
// and mrt.ReaderOptions do.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	root zerolog.Logger
)

// Init wires the process-wide console writer. Safe to call more than
// once; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
		lvl := zerolog.InfoLevel
		if debug {
			lvl = zerolog.DebugLevel
		}
		root = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	})
}

// Root returns the process-wide logger, initializing a sane default
// (info level, stderr) if Init was never called.
func Root() *zerolog.Logger {
	once.Do(func() {
		root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
	return &root
}

// Sub returns a child logger tagged with a component name.
func Sub(component string) *zerolog.Logger {
	l := Root().With().Str("component", component).Logger()
	return &l
}

// Nop returns a disabled logger, used as the default for Options.Logger
// fields the way bgpfix's pipe.apply() does.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// Discard is a convenience io.Writer for tests that want a logger with
// no visible output but still exercising the zerolog code path.
var Discard io.Writer = io.Discard
