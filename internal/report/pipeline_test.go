package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wirereport/wirereport/internal/source"
	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/pkg/feed"
)

// fixedSource serves one page of history for every channel.
type fixedSource struct {
	messages []feed.Message
}

func (s *fixedSource) ListChannels(context.Context) ([]feed.Channel, error) {
	return []feed.Channel{{ID: "c1", Name: "news"}}, nil
}

func (s *fixedSource) FetchPage(_ context.Context, _ string, beforeID string) ([]feed.Message, error) {
	if beforeID != "" {
		return nil, nil
	}
	return s.messages, nil
}

type recordingNotifier struct {
	sent []feed.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification feed.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func botMessages(n int, botName string) []feed.Message {
	base := time.Now().UTC().Add(-5 * time.Minute)
	msgs := make([]feed.Message, n)
	for i := range msgs {
		msgs[i] = feed.Message{
			ID:        time.Duration(n - i).String(),
			Author:    feed.Author{Username: botName},
			Timestamp: base.Add(time.Duration(n-i) * time.Second),
			Content:   "update " + time.Duration(i).String(),
		}
	}
	return msgs
}

func newTestPipeline(t *testing.T, src source.Source, p *stubProvider, n *recordingNotifier) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()
	fetcher := source.NewWindowFetcher(src, "feedbot", "", logger)
	return NewPipeline(
		fetcher,
		store.NewMessageLog(dir, logger),
		store.NewSummaryStore(dir, nil, logger),
		NewSummarizer(p, logger),
		n,
		nil,
		logger,
	)
}

func TestPipelineFullCycle(t *testing.T) {
	src := &fixedSource{messages: botMessages(6, "feedbot")}
	notifier := &recordingNotifier{}
	pipe := newTestPipeline(t, src, &stubProvider{response: cannedReport}, notifier)

	result, err := pipe.Run(context.Background(), feed.Channel{ID: "c1", Name: "news"}, feed.Timeframe1h)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MessageCount != 6 {
		t.Fatalf("message count = %d, want 6", result.MessageCount)
	}
	if !result.Saved || !result.Delivered {
		t.Fatalf("saved/delivered = %v/%v, want true/true", result.Saved, result.Delivered)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.sent))
	}
	if notifier.sent[0].Text != result.Summary.Content.Text() {
		t.Fatal("notification text does not match the summary")
	}
}

func TestPipelineEmptyWindowIsNoOp(t *testing.T) {
	src := &fixedSource{}
	notifier := &recordingNotifier{}
	pipe := newTestPipeline(t, src, &stubProvider{response: cannedReport}, notifier)

	result, err := pipe.Run(context.Background(), feed.Channel{ID: "c1", Name: "news"}, feed.Timeframe1h)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MessageCount != 0 || result.Summary != nil {
		t.Fatalf("expected no-op result, got %+v", result)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("no-op cycle sent a notification")
	}
}

func TestPipelineBelowThresholdSavesWithoutSending(t *testing.T) {
	// Two messages is under the 1h threshold of five.
	src := &fixedSource{messages: botMessages(2, "feedbot")}
	notifier := &recordingNotifier{}
	pipe := newTestPipeline(t, src, &stubProvider{response: cannedReport}, notifier)

	result, err := pipe.Run(context.Background(), feed.Channel{ID: "c1", Name: "news"}, feed.Timeframe1h)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Saved {
		t.Fatal("below-threshold report must still be saved")
	}
	if result.Delivered || len(notifier.sent) != 0 {
		t.Fatal("below-threshold report must not be delivered")
	}
}

func TestPipelineSummarizerFailureSurfaced(t *testing.T) {
	src := &fixedSource{messages: botMessages(6, "feedbot")}
	wantErr := errors.New("model unavailable")
	pipe := newTestPipeline(t, src, &stubProvider{err: wantErr}, &recordingNotifier{})

	result, err := pipe.Run(context.Background(), feed.Channel{ID: "c1", Name: "news"}, feed.Timeframe1h)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
	if result.Saved {
		t.Fatal("failed cycle must not mark the report saved")
	}
}

func TestPipelineChainsAcrossCycles(t *testing.T) {
	src := &fixedSource{messages: botMessages(6, "feedbot")}
	p := &stubProvider{response: cannedReport}
	pipe := newTestPipeline(t, src, p, &recordingNotifier{})

	ch := feed.Channel{ID: "c1", Name: "news"}
	if _, err := pipe.Run(context.Background(), ch, feed.Timeframe1h); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Shift the window so the second cycle covers a fresh period.
	src.messages = botMessages(6, "feedbot")
	for i := range src.messages {
		src.messages[i].Timestamp = src.messages[i].Timestamp.Add(2 * time.Minute)
	}
	if _, err := pipe.Run(context.Background(), ch, feed.Timeframe1h); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	prompt := p.lastReq.Messages[1].Content
	if !strings.Contains(prompt, "CONTEXT FROM PREVIOUS REPORT") {
		t.Fatal("second cycle did not chain the stored report")
	}
	if !strings.Contains(prompt, "PORT REOPENS AFTER STRIKE") {
		t.Fatal("context block is missing the previous headline")
	}
}

func TestPipelineFiltersForeignAuthors(t *testing.T) {
	msgs := append(botMessages(3, "feedbot"), botMessages(3, "SomeoneElse")...)
	src := &fixedSource{messages: msgs}
	pipe := newTestPipeline(t, src, &stubProvider{response: cannedReport}, &recordingNotifier{})

	result, err := pipe.Run(context.Background(), feed.Channel{ID: "c1", Name: "news"}, feed.Timeframe1h)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.MessageCount != 3 {
		t.Fatalf("message count = %d, want 3", result.MessageCount)
	}
}

func TestWindowDayIsWindowStart(t *testing.T) {
	early := time.Date(2026, 8, 27, 23, 50, 0, 0, time.UTC)
	msgs := []feed.Message{
		{Timestamp: time.Date(2026, 8, 27, 23, 59, 0, 0, time.UTC)},
		{Timestamp: time.Date(2026, 8, 28, 0, 5, 0, 0, time.UTC)},
		{Timestamp: early},
	}
	if got := windowDay(msgs); !got.Equal(early) {
		t.Fatalf("windowDay = %s, want %s", got, early)
	}
}

func TestOverlappingWindowsShareDayPartition(t *testing.T) {
	dir := t.TempDir()
	log := store.NewMessageLog(dir, testLogger())

	at := func(day, hour, minute int, content string) feed.Message {
		return feed.Message{
			Timestamp: time.Date(2026, 8, day, hour, minute, 0, 0, time.UTC),
			Content:   content,
		}
	}
	recEarly := at(27, 23, 50, "first update")
	recLate := at(27, 23, 59, "late update")
	recNext := at(28, 0, 5, "after midnight")

	first := []feed.Message{recEarly, recLate}
	if _, err := log.Append("news", windowDay(first), FormatMessages(first)); err != nil {
		t.Fatalf("first Append: %v", err)
	}

	// The next window overlaps the first across midnight; its shared
	// record must land in the same partition and be dropped as a dup.
	second := []feed.Message{recLate, recNext}
	written, err := log.Append("news", windowDay(second), FormatMessages(second))
	if err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if written != 1 {
		t.Fatalf("second append wrote %d records, want 1", written)
	}

	count, err := log.Count("news", recEarly.Timestamp)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("partition holds %d records, want 3", count)
	}
}
