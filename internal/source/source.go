// Package source defines the message-source contract and the cutoff-bounded
// window fetch used by the report pipeline. Any paginated, timestamp-ordered
// REST-like source satisfies the contract.
package source

import (
	"context"

	"github.com/wirereport/wirereport/pkg/feed"
)

// Source is the abstract message source the pipeline reads from.
type Source interface {
	// ListChannels returns the channels eligible for reporting.
	ListChannels(ctx context.Context) ([]feed.Channel, error)

	// FetchPage returns one page of messages for a channel, most recent
	// first. A non-empty beforeID anchors the page strictly before that
	// message. An empty result means no more history.
	FetchPage(ctx context.Context, channelID, beforeID string) ([]feed.Message, error)
}
