package feed

import "time"

// SummaryContent is the structured body of a generated report:
// a headline line, a dateline location line, and the narrative body.
type SummaryContent struct {
	Headline string `json:"headline"`
	Location string `json:"location"`
	Body     string `json:"body"`
}

// Text renders the content the way it is delivered to sinks.
func (c SummaryContent) Text() string {
	return c.Headline + "\n" + c.Location + "\n\n" + c.Body
}

// Summary is one generated report for a channel and timeframe. The period
// is derived from the timestamps of the summarized messages, not from the
// requested duration. Summaries are immutable once persisted.
type Summary struct {
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Timeframe   Timeframe      `json:"timeframe"`
	Channel     string         `json:"channel"`
	Content     SummaryContent `json:"content"`
}

// SamePeriod reports whether two summaries cover the exact same period.
// Exact duplicates are rejected by the store, never merged.
func (s Summary) SamePeriod(other Summary) bool {
	return s.PeriodStart.Equal(other.PeriodStart) && s.PeriodEnd.Equal(other.PeriodEnd)
}
