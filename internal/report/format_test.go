package report

import (
	"strings"
	"testing"
	"time"

	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/pkg/feed"
)

func TestFormatMessage(t *testing.T) {
	msg := feed.Message{
		ID:        "100",
		Timestamp: time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		Content:   "Explosion reported downtown",
		Embeds: []feed.Embed{{
			Title:       "Local media",
			Description: "Emergency services on scene",
			Fields: []feed.EmbedField{
				{Name: "Severity", Value: "High"},
				{Name: "Source", Value: "https://example.com/post/1"},
			},
		}},
	}

	got := FormatMessage(msg)

	if !strings.HasPrefix(got, "[2026-08-28 14:30 UTC]") {
		t.Fatalf("record does not start with timestamp line: %q", got)
	}
	for _, want := range []string{
		"Explosion reported downtown",
		"Title: Local media",
		"Description: Emergency services on scene",
		"Severity: High",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("record missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "example.com") {
		t.Errorf("source field was not excluded:\n%s", got)
	}
}

func TestFormatMessageContentOnly(t *testing.T) {
	msg := feed.Message{
		Timestamp: time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		Content:   "plain update",
	}
	want := "[2026-08-28 14:30 UTC]\nplain update"
	if got := FormatMessage(msg); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatMessagesJoinsWithDelimiter(t *testing.T) {
	msgs := []feed.Message{
		{Timestamp: time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC), Content: "one"},
		{Timestamp: time.Date(2026, 8, 28, 14, 35, 0, 0, time.UTC), Content: "two"},
	}
	got := FormatMessages(msgs)
	if strings.Count(got, store.RecordDelimiter) != 1 {
		t.Fatalf("expected exactly one delimiter:\n%s", got)
	}
}

func TestParseSummaryText(t *testing.T) {
	text := "CEASEFIRE TALKS RESUME\nCairo, August 28, 2026\n\nDelegations returned to the table on Thursday.\n\nA second round is planned."

	content, err := parseSummaryText(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if content.Headline != "CEASEFIRE TALKS RESUME" {
		t.Errorf("headline = %q", content.Headline)
	}
	if content.Location != "Cairo, August 28, 2026" {
		t.Errorf("location = %q", content.Location)
	}
	if !strings.HasPrefix(content.Body, "Delegations returned") ||
		!strings.HasSuffix(content.Body, "second round is planned.") {
		t.Errorf("body = %q", content.Body)
	}
}

func TestParseSummaryTextEmpty(t *testing.T) {
	if _, err := parseSummaryText("   \n  "); err != ErrEmptyCompletion {
		t.Fatalf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestParseSummaryTextMalformed(t *testing.T) {
	if _, err := parseSummaryText("JUST A HEADLINE"); err != ErrMalformedCompletion {
		t.Fatalf("err = %v, want ErrMalformedCompletion", err)
	}
}
