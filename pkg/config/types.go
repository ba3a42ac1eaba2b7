// Package config provides configuration loading and validation for lineblame.
package config

import (
	"time"

	"github.com/ccollicutt/lineblame/pkg/stats"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Sources are files or globs of captured blame output, used when no
	// inputs are given on the command line.
	Sources  []string        `yaml:"sources"`
	Parser   ParserConfig    `yaml:"parser"`
	Stats    StatsConfig     `yaml:"stats"`
	Output   OutputConfig    `yaml:"output"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ParserConfig controls decoding.
type ParserConfig struct {
	// Strict rejects unknown metadata keywords instead of ignoring them.
	Strict bool `yaml:"strict"`

	// Concurrency bounds how many inputs are decoded at once.
	Concurrency int `yaml:"concurrency"`
}

// StatsConfig controls ownership aggregation.
type StatsConfig struct {
	// GroupBy lists the tables to build (author, commit, filename, age).
	GroupBy []string `yaml:"group_by"`

	// Top limits each table to its largest rows. Zero keeps all rows.
	Top int `yaml:"top"`
}

// Groups returns GroupBy as typed values.
func (s *StatsConfig) Groups() []stats.GroupBy {
	groups := make([]stats.GroupBy, 0, len(s.GroupBy))
	for _, g := range s.GroupBy {
		groups = append(groups, stats.GroupBy(g))
	}
	return groups
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	// Format is text, json or csv.
	Format string `yaml:"format"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailure fires only when an input failed to decode (default).
	WebhookTriggerOnFailure WebhookTrigger = "on_failure"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	// TokenRef is the variable reference Token was expanded from, if any.
	TokenRef string `yaml:"-"`

	// Trigger defaults to on_failure.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout defaults to 10s.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// UnresolvedToken reports whether Token referenced a variable that
// expanded to nothing.
func (w *WebhookConfig) UnresolvedToken() bool {
	return w.TokenRef != "" && w.Token == ""
}

// DisplayName returns Name, or URL when no name is set.
func (w *WebhookConfig) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.URL
}
