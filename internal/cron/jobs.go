package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wirereport/wirereport/internal/metrics"
	"github.com/wirereport/wirereport/internal/notify"
	"github.com/wirereport/wirereport/internal/report"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/pkg/feed"
)

// channelPacing is the delay between per-channel pipeline runs within one
// tick, keeping a burst of channels from hammering the source and the
// summarization service at once.
const channelPacing = time.Second

// defaultSchedules maps the standard timeframes to their report cadence.
var defaultSchedules = map[feed.Timeframe]string{
	feed.Timeframe10m: "*/10 * * * *",
	feed.Timeframe1h:  "0 * * * *",
	feed.Timeframe24h: "0 6 * * *",
}

// ReportJob runs the report pipeline for one timeframe across every
// channel the source lists.
type ReportJob struct {
	Timeframe    feed.Timeframe
	Pipeline     *report.Pipeline
	Source       source.Source
	Metrics      *metrics.Metrics
	Notifier     notify.Notifier // optional, receives the failure roll-up
	Logger       *slog.Logger
	ScheduleExpr string // empty = built-in default for the timeframe
}

var _ Job = (*ReportJob)(nil)

// Name implements Job.
func (j *ReportJob) Name() string {
	return "report:" + string(j.Timeframe)
}

// Schedule implements Job.
func (j *ReportJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	if expr, ok := defaultSchedules[j.Timeframe]; ok {
		return expr
	}
	return "0 * * * *"
}

// Run executes one report cycle per channel, sequentially with pacing.
// A failing channel is recorded and skipped; the remaining channels still
// get their reports.
func (j *ReportJob) Run(ctx context.Context) error {
	channels, err := j.Source.ListChannels(ctx)
	if err != nil {
		return err
	}

	var generated, delivered, failed int
	for i, ch := range channels {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(channelPacing):
			}
		}

		started := time.Now()
		result, err := j.Pipeline.Run(ctx, ch, j.Timeframe)
		if j.Metrics != nil {
			j.Metrics.PipelineDuration.WithLabelValues(string(j.Timeframe)).
				Observe(time.Since(started).Seconds())
			j.Metrics.MessagesFetched.WithLabelValues(ch.Name).
				Add(float64(result.MessageCount))
		}
		if err != nil {
			failed++
			if j.Metrics != nil {
				j.Metrics.ReportsFailed.WithLabelValues(ch.Name, string(j.Timeframe)).Inc()
			}
			j.Logger.Error("cron: report cycle failed",
				"channel", ch.Name,
				"timeframe", string(j.Timeframe),
				"error", err,
			)
			continue
		}
		if result.Saved {
			generated++
			if j.Metrics != nil {
				j.Metrics.ReportsGenerated.WithLabelValues(ch.Name, string(j.Timeframe)).Inc()
			}
		}
		if result.Delivered {
			delivered++
			if j.Metrics != nil {
				j.Metrics.ReportsDelivered.WithLabelValues(ch.Name, string(j.Timeframe)).Inc()
			}
		}
	}

	j.Logger.Info("cron: report tick complete",
		"timeframe", string(j.Timeframe),
		"channels", len(channels),
		"generated", generated,
		"delivered", delivered,
		"failed", failed,
	)

	if failed > 0 && j.Notifier != nil {
		n := feed.Notification{
			Text:    fmt.Sprintf("%s reports: %d of %d channels failed", j.Timeframe, failed, len(channels)),
			IsError: true,
		}
		if err := j.Notifier.Notify(ctx, n); err != nil {
			j.Logger.Warn("cron: failure roll-up notification failed", "error", err)
		}
	}
	return nil
}

// SelectionPruner is the subset of the session store the cleanup job uses.
type SelectionPruner interface {
	Prune(ctx context.Context) (int64, error)
}

// CleanupJob runs the age-based retention sweep over the data directory
// and prunes expired user selections.
type CleanupJob struct {
	Sweeper      *store.Sweeper
	MaxAge       time.Duration
	Sessions     SelectionPruner // optional
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "30 5 * * *"
}

var _ Job = (*CleanupJob)(nil)

// Name implements Job.
func (j *CleanupJob) Name() string { return "cleanup" }

// Schedule implements Job.
func (j *CleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "30 5 * * *"
}

// Run implements Job.
func (j *CleanupJob) Run(ctx context.Context) error {
	stats, err := j.Sweeper.Sweep(j.MaxAge)
	if err != nil {
		return err
	}
	if j.Metrics != nil {
		j.Metrics.CleanupFiles.Add(float64(stats.FilesRemoved))
		j.Metrics.CleanupBytes.Add(float64(stats.BytesFreed))
	}

	if j.Sessions != nil {
		pruned, err := j.Sessions.Prune(ctx)
		if err != nil {
			j.Logger.Warn("cron: session prune failed", "error", err)
		} else if pruned > 0 {
			j.Logger.Info("cron: pruned expired selections", "count", pruned)
		}
	}
	return nil
}
