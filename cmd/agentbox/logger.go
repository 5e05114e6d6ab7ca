package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var debugLog = zerolog.Nop()

// initLogger writes structured debug logs to ~/.agentbox/debug.log. The TUI
// owns the terminal, so nothing is ever logged to stderr while it runs.
func initLogger() error {
	if err := os.MkdirAll(configDir(), 0o700); err != nil {
		return err
	}

	file, err := os.OpenFile(filepath.Join(configDir(), "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	debugLog = zerolog.New(file).With().Timestamp().Logger()
	debugLog.Info().Msg("agentbox cli started")
	return nil
}
