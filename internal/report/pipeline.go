package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wirereport/wirereport/internal/notify"
	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/internal/telemetry"
	"github.com/wirereport/wirereport/pkg/feed"
)

// DefaultThresholds is the minimum message count per timeframe before a
// generated report is delivered to sinks. Reports below the threshold are
// still generated and saved, just not sent.
var DefaultThresholds = map[feed.Timeframe]int{
	feed.Timeframe10m: 3,
	feed.Timeframe1h:  5,
	feed.Timeframe24h: 10,
}

const fallbackThreshold = 5

// Result describes one pipeline run.
type Result struct {
	Summary      *feed.Summary
	MessageCount int
	Saved        bool
	Delivered    bool
}

// Pipeline orchestrates one report cycle:
// fetch → log → context lookup → summarize → store → notify.
// It holds no state of its own between runs; a per-(channel, timeframe)
// lock keeps the store's check-then-insert free of concurrent writers.
type Pipeline struct {
	fetcher    *source.WindowFetcher
	log        *store.MessageLog
	summaries  *store.SummaryStore
	summarizer *Summarizer
	notifier   notify.Notifier
	thresholds map[feed.Timeframe]int
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline wires the pipeline stages together. A nil notifier disables
// delivery; a nil thresholds map uses DefaultThresholds.
func NewPipeline(fetcher *source.WindowFetcher, log *store.MessageLog, summaries *store.SummaryStore, summarizer *Summarizer, notifier notify.Notifier, thresholds map[feed.Timeframe]int, logger *slog.Logger) *Pipeline {
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:    fetcher,
		log:        log,
		summaries:  summaries,
		summarizer: summarizer,
		notifier:   notifier,
		thresholds: thresholds,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (p *Pipeline) lockFor(channel string, tf feed.Timeframe) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := channel + "/" + string(tf)
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	return l
}

// windowDay returns the log partition day for a window: the earliest
// message timestamp. Keyed on the window start, overlapping windows that
// straddle midnight share a partition and the append dedup applies.
func windowDay(msgs []feed.Message) time.Time {
	day := msgs[0].Timestamp
	for _, m := range msgs[1:] {
		if m.Timestamp.Before(day) {
			day = m.Timestamp
		}
	}
	return day.UTC()
}

func (p *Pipeline) threshold(tf feed.Timeframe) int {
	if n, ok := p.thresholds[tf]; ok {
		return n
	}
	return fallbackThreshold
}

// Run executes one cycle for a channel and timeframe. An empty window is a
// no-op result, not an error. A message-log failure is logged and the run
// continues; summarize and store failures are returned to the caller.
func (p *Pipeline) Run(ctx context.Context, channel feed.Channel, tf feed.Timeframe) (Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "report.run",
		trace.WithAttributes(
			attribute.String("channel", channel.Name),
			attribute.String("timeframe", string(tf)),
		))
	defer span.End()

	lock := p.lockFor(channel.Name, tf)
	lock.Lock()
	defer lock.Unlock()

	duration, err := tf.Duration()
	if err != nil {
		return Result{}, err
	}

	msgs, err := p.fetcher.Fetch(ctx, channel.ID, duration)
	if err != nil {
		return Result{}, fmt.Errorf("report: fetch %s: %w", channel.Name, err)
	}
	result := Result{MessageCount: len(msgs)}
	if len(msgs) == 0 {
		p.logger.Info("no messages in window, skipping report",
			"channel", channel.Name, "timeframe", string(tf))
		return result, nil
	}

	// Side-effect path: a log failure never blocks report generation.
	blob := FormatMessages(msgs)
	if _, err := p.log.Append(channel.Name, windowDay(msgs), blob); err != nil {
		p.logger.Warn("message log append failed, continuing",
			"channel", channel.Name, "error", err)
	}

	var previous *feed.Summary
	if prev, ok := p.summaries.Latest(channel.Name, tf); ok {
		previous = &prev
	}

	summary, err := p.summarizer.Summarize(ctx, msgs, channel.Name, tf, previous)
	if err != nil {
		return result, err
	}
	if summary == nil {
		return result, nil
	}
	result.Summary = summary

	if err := p.summaries.Save(channel.Name, *summary); err != nil {
		return result, fmt.Errorf("report: save %s/%s: %w", channel.Name, tf, err)
	}
	result.Saved = true

	if threshold := p.threshold(tf); len(msgs) < threshold {
		p.logger.Info("below delivery threshold, report saved but not sent",
			"channel", channel.Name,
			"timeframe", string(tf),
			"messages", len(msgs),
			"threshold", threshold,
		)
		return result, nil
	}

	if p.notifier != nil {
		n := feed.Notification{Text: summary.Content.Text()}
		if err := p.notifier.Notify(ctx, n); err != nil {
			return result, fmt.Errorf("report: notify %s/%s: %w", channel.Name, tf, err)
		}
		result.Delivered = true
	}
	return result, nil
}
