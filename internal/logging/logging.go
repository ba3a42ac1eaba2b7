// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Defaults for the --log-level and --log-format flags.
const (
	DefaultLevel  = "warn"
	DefaultFormat = "text"
)

// Configure sets the level, format and destination of the standard logger.
func Configure(level, format string, w io.Writer) error {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q (use text or json)", format)
	}

	log.SetLevel(lvl)
	log.SetOutput(w)
	return nil
}
