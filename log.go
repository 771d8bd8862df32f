package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// setupLog routes logging. With PARLANDO_LOGFILE set everything goes to
// that file at debug level. Otherwise logs go to stderr: warnings and up
// normally, everything with --debug. The returned closer flushes the log
// file, if any.
func setupLog(logFile string, debug bool) (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if logFile == "" {
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("error setting up logging: %w", err)
	}
	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}
