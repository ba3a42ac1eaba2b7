package config

import (
	"time"

	"github.com/ccollicutt/lineblame/pkg/source"
	"github.com/ccollicutt/lineblame/pkg/stats"
)

// Default values for configuration.
const (
	DefaultFormat         = "text"
	DefaultTop            = 10
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvConfig  = "LINEBLAME_CONFIG"
	EnvSources = "LINEBLAME_SOURCES"
	EnvStrict  = "LINEBLAME_STRICT"
)

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "csv"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: []string{},
		Parser: ParserConfig{
			Concurrency: source.DefaultConcurrency,
		},
		Stats: StatsConfig{
			GroupBy: []string{string(stats.GroupByAuthor)},
			Top:     DefaultTop,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
	}
}
