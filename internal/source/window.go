package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/wirereport/wirereport/pkg/feed"
)

// WindowFetcher pages backward through a channel's history and returns the
// messages authored by the configured bot identity within a time window.
//
// The fetch is complete by construction: it only stops once a page's oldest
// message has crossed the cutoff (everything further back is older, by the
// source's ordering guarantee) or the source runs out of pages. A page-fetch
// failure is treated as end of history: accumulated messages are returned as
// a best-effort window and a warning is logged. The fetcher cannot tell an
// upstream hiccup apart from exhausted history, a known limitation carried
// over deliberately rather than silently changed.
type WindowFetcher struct {
	src           Source
	botUsername   string
	discriminator string
	logger        *slog.Logger
	now           func() time.Time
}

// NewWindowFetcher creates a fetcher that keeps only messages authored by
// the given bot identity.
func NewWindowFetcher(src Source, botUsername, discriminator string, logger *slog.Logger) *WindowFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowFetcher{
		src:           src,
		botUsername:   botUsername,
		discriminator: discriminator,
		logger:        logger,
		now:           time.Now,
	}
}

// Fetch returns all qualifying messages in the window [now-duration, now].
// An empty window is a nil slice, not an error. Calls for the same channel
// must not run concurrently; the pagination cursor is per call.
func (f *WindowFetcher) Fetch(ctx context.Context, channelID string, duration time.Duration) ([]feed.Message, error) {
	cutoff := f.now().Add(-duration).UTC()

	f.logger.Info("fetching message window",
		"channel", channelID,
		"duration", duration.String(),
		"cutoff", cutoff.Format(time.RFC3339),
	)

	var window []feed.Message
	var beforeID string

	for {
		page, err := f.src.FetchPage(ctx, channelID, beforeID)
		if err != nil {
			// Best effort: return what we have, the caller decides.
			f.logger.Warn("page fetch failed, treating as end of history",
				"channel", channelID,
				"accumulated", len(window),
				"error", err,
			)
			return window, nil
		}
		if len(page) == 0 {
			break
		}

		matched := 0
		for _, msg := range page {
			if msg.IsFrom(f.botUsername, f.discriminator) && !msg.Timestamp.Before(cutoff) {
				window = append(window, msg)
				matched++
			}
		}

		f.logger.Debug("processed page",
			"channel", channelID,
			"page_size", len(page),
			"matched", matched,
		)

		// The page is most-recent-first: once its oldest entry is older
		// than the cutoff, everything beyond it is older still.
		oldest := page[len(page)-1]
		if oldest.Timestamp.Before(cutoff) {
			break
		}
		beforeID = oldest.ID
	}

	f.logger.Info("window fetch complete", "channel", channelID, "messages", len(window))
	return window, nil
}
