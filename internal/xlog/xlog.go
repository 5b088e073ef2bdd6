// Package xlog is a small zerolog wrapper shared by this module's command
// binaries, grounded on the retrieval pack's own zerolog convention
// (vocdoni-davinci-node/log): a single process-wide structured logger,
// console-formatted to stderr, with a settable level.
package xlog

import (
	"os"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
	With().Timestamp().Logger()

// Init sets the process-wide log level from a level name ("debug", "info",
// "warn", "error"); an unrecognized name leaves the level unchanged.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return
	}
	logger = logger.Level(lvl)
}

// L returns the process-wide logger.
func L() *zerolog.Logger { return &logger }
