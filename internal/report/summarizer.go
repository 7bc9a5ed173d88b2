package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wirereport/wirereport/internal/provider"
	"github.com/wirereport/wirereport/pkg/feed"
)

const summaryMaxTokens = 800

// Summarizer turns a window of messages into a structured report through
// an LLM provider, chaining in the previous report for the same channel
// and timeframe so consecutive reports read as continuing coverage.
type Summarizer struct {
	provider provider.Provider
	logger   *slog.Logger
}

// NewSummarizer creates a summarizer over a provider, usually a failover
// Chain.
func NewSummarizer(p provider.Provider, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{provider: p, logger: logger}
}

// Summarize generates a report from a message window. An empty window
// produces (nil, nil): no report, not an error. The report's period is the
// min/max timestamp across the messages, not the requested duration.
func (s *Summarizer) Summarize(ctx context.Context, msgs []feed.Message, channel string, tf feed.Timeframe, previous *feed.Summary) (*feed.Summary, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	periodStart := msgs[0].Timestamp
	periodEnd := msgs[0].Timestamp
	for _, msg := range msgs[1:] {
		if msg.Timestamp.Before(periodStart) {
			periodStart = msg.Timestamp
		}
		if msg.Timestamp.After(periodEnd) {
			periodEnd = msg.Timestamp
		}
	}

	prompt := buildPrompt(FormatMessages(msgs), previous)

	s.logger.Debug("requesting summary",
		"channel", channel,
		"timeframe", string(tf),
		"messages", len(msgs),
		"chained", previous != nil,
		"model", s.provider.ModelName(),
	)

	resp, err := s.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleSystem, Content: systemPrompt},
			{Role: provider.MessageRoleUser, Content: prompt},
		},
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("report: summarize %s/%s: %w", channel, tf, err)
	}

	content, err := parseSummaryText(resp.Content)
	if err != nil {
		return nil, err
	}

	s.logger.Info("generated summary",
		"channel", channel,
		"timeframe", string(tf),
		"period_start", periodStart.UTC().Format(time.RFC3339),
		"period_end", periodEnd.UTC().Format(time.RFC3339),
		"tokens", resp.Usage.TotalTokens,
	)

	return &feed.Summary{
		PeriodStart: periodStart.UTC(),
		PeriodEnd:   periodEnd.UTC(),
		Timeframe:   tf,
		Channel:     channel,
		Content:     content,
	}, nil
}

// parseSummaryText splits the response into the report shape: headline on
// the first line, dateline location on the second, body from the fourth
// line on (the third is the blank separator).
func parseSummaryText(text string) (feed.SummaryContent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return feed.SummaryContent{}, ErrEmptyCompletion
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return feed.SummaryContent{}, ErrMalformedCompletion
	}

	content := feed.SummaryContent{
		Headline: strings.TrimSpace(lines[0]),
		Location: strings.TrimSpace(lines[1]),
	}
	if len(lines) > 3 {
		content.Body = strings.TrimSpace(strings.Join(lines[3:], "\n"))
	}
	if content.Headline == "" {
		return feed.SummaryContent{}, ErrMalformedCompletion
	}
	return content, nil
}
