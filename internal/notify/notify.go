// Package notify defines the delivery side of the pipeline: sinks that
// receive finished reports and the duplicate-send cache that keeps a sink
// from posting the same text twice in quick succession.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wirereport/wirereport/pkg/feed"
)

// Notifier delivers a notification to one sink. Implementations register
// themselves as "notify.*" modules.
type Notifier interface {
	Notify(ctx context.Context, n feed.Notification) error
}

// Dispatcher fans a notification out to every registered sink. A failing
// sink is logged and does not block the others; the joined error is
// returned so the caller can record the failure.
type Dispatcher struct {
	sinks  map[string]Notifier
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over named sinks.
func NewDispatcher(sinks map[string]Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Notify delivers to all sinks sequentially.
func (d *Dispatcher) Notify(ctx context.Context, n feed.Notification) error {
	var errs []error
	for name, sink := range d.sinks {
		if err := sink.Notify(ctx, n); err != nil {
			d.logger.Error("notification delivery failed",
				"sink", name, "error", err)
			errs = append(errs, err)
			continue
		}
		d.logger.Debug("notification delivered", "sink", name)
	}
	return errors.Join(errs...)
}

// Sinks returns the registered sink names.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for name := range d.sinks {
		names = append(names, name)
	}
	return names
}
