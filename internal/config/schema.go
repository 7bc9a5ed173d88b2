// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for wirereport.
package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wirereport/wirereport/pkg/feed"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir is the root of the on-disk channel partitions. Defaults to
	// "./data" when empty.
	DataDir string `yaml:"data_dir,omitempty"`

	// Reporting configures the scheduled report cadences.
	Reporting ReportingConfig `yaml:"reporting,omitempty"`

	// Cleanup configures the age-based retention sweep.
	Cleanup CleanupConfig `yaml:"cleanup,omitempty"`

	// Modules maps module IDs to their raw YAML configuration.
	// Keys must match registered module IDs (e.g. "source.discord").
	Modules map[string]yaml.Node `yaml:"modules"`
}

// ReportingConfig drives the per-timeframe report jobs.
type ReportingConfig struct {
	// Timeframes maps a timeframe label ("10m", "1h", "24h", or a custom
	// <n>m/<n>h label) to its cadence settings. Unset fields fall back to
	// the built-in defaults.
	Timeframes map[string]TimeframeConfig `yaml:"timeframes,omitempty"`
}

// TimeframeConfig is the cadence settings for one timeframe.
type TimeframeConfig struct {
	// Schedule is the cron expression that triggers the report job.
	Schedule string `yaml:"schedule,omitempty"`

	// Threshold is the minimum message count before a generated report
	// is delivered. Reports below it are still generated and saved.
	Threshold int `yaml:"threshold,omitempty"`

	// Retention is the number of summaries kept per channel for this
	// timeframe.
	Retention int `yaml:"retention,omitempty"`
}

// CleanupConfig drives the scheduled age sweep over the data directory.
type CleanupConfig struct {
	// Schedule is the cron expression for the sweep. Empty disables it.
	Schedule string `yaml:"schedule,omitempty"`

	// MaxAgeDays is the modification-time age past which persisted files
	// are removed. Defaults to 30.
	MaxAgeDays int `yaml:"max_age_days,omitempty"`
}

const (
	defaultDataDir    = "data"
	defaultMaxAgeDays = 30
)

// EffectiveDataDir returns the configured data directory or the default.
func (c *Config) EffectiveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return defaultDataDir
}

// MaxAge returns the cleanup sweep age as a duration.
func (c *Config) MaxAge() time.Duration {
	days := c.Cleanup.MaxAgeDays
	if days <= 0 {
		days = defaultMaxAgeDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Thresholds returns the configured per-timeframe delivery thresholds.
func (c *Config) Thresholds() map[feed.Timeframe]int {
	return c.Reporting.Thresholds()
}

// RetentionCounts returns the configured per-timeframe summary retention.
func (c *Config) RetentionCounts() map[feed.Timeframe]int {
	return c.Reporting.RetentionCounts()
}

// Thresholds collects the configured delivery thresholds, keyed by
// timeframe. Timeframes without an explicit threshold are absent; callers
// apply their own defaults.
func (r ReportingConfig) Thresholds() map[feed.Timeframe]int {
	out := make(map[feed.Timeframe]int)
	for label, tc := range r.Timeframes {
		if tc.Threshold > 0 {
			out[feed.Timeframe(label)] = tc.Threshold
		}
	}
	return out
}

// RetentionCounts collects the configured per-timeframe summary retention.
func (r ReportingConfig) RetentionCounts() map[feed.Timeframe]int {
	out := make(map[feed.Timeframe]int)
	for label, tc := range r.Timeframes {
		if tc.Retention > 0 {
			out[feed.Timeframe(label)] = tc.Retention
		}
	}
	return out
}
