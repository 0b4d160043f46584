// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Options struct {
	// Terminal is set when a full-screen UI owns stdout/stderr.
	Terminal bool
	Debug    bool
	File     string
	Level    string
}

// Setup points the standard logger at the right sink. A full-screen UI only
// logs when debugging, and then to File. The returned closer releases the
// file, if one was opened.
func Setup(opts Options) (io.Closer, error) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: opts.Terminal})

	if opts.Terminal {
		if !opts.Debug {
			log.SetOutput(io.Discard)
			return nopCloser{}, nil
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			log.SetOutput(io.Discard)
			return nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f, nil
	}

	log.SetOutput(os.Stderr)
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nopCloser{}, err
	}
	if opts.Debug && level < log.DebugLevel {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	return nopCloser{}, nil
}

func parseLevel(s string) (log.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
