// Package session persists per-user command state: which channel a user
// selected and is about to request a report for. State is scoped to the
// requesting user, survives restarts, and expires instead of lingering
// forever when a user abandons the flow mid-selection.
package session

import "time"

// Selection is one user's pending channel choice.
type Selection struct {
	UserID      string
	ChannelID   string
	ChannelName string
	UpdatedAt   time.Time
}

// DefaultTTL is how long a pending selection stays valid.
const DefaultTTL = time.Hour
