package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/pkg/feed"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks the structural validity of a Config: the version field,
// that every configured module ID is registered, and that the reporting
// and cleanup sections parse. Configuration problems are fatal at startup
// and never encountered mid-pipeline.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
		}
	}

	errs = append(errs, validateReporting(cfg.Reporting)...)
	errs = append(errs, validateCleanup(cfg.Cleanup)...)

	return errors.Join(errs...)
}

func validateReporting(r ReportingConfig) []error {
	var errs []error
	for label, tc := range r.Timeframes {
		if _, err := feed.ParseTimeframe(label); err != nil {
			errs = append(errs, fmt.Errorf("config: reporting.timeframes: %w", err))
		}
		if tc.Schedule != "" {
			if _, err := cronParser.Parse(tc.Schedule); err != nil {
				errs = append(errs, fmt.Errorf("config: reporting.timeframes[%s]: invalid schedule %q: %w", label, tc.Schedule, err))
			}
		}
		if tc.Threshold < 0 {
			errs = append(errs, fmt.Errorf("config: reporting.timeframes[%s]: threshold must not be negative", label))
		}
		if tc.Retention < 0 {
			errs = append(errs, fmt.Errorf("config: reporting.timeframes[%s]: retention must not be negative", label))
		}
	}
	return errs
}

func validateCleanup(c CleanupConfig) []error {
	var errs []error
	if c.Schedule != "" {
		if _, err := cronParser.Parse(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("config: cleanup: invalid schedule %q: %w", c.Schedule, err))
		}
	}
	if c.MaxAgeDays < 0 {
		errs = append(errs, errors.New("config: cleanup.max_age_days must not be negative"))
	}
	return errs
}
