// Package feed defines the platform-agnostic data contract between the
// message source, the report pipeline, the stores, and the notification
// sinks. It carries messages, channels, summaries, and notifications.
package feed

import "time"

// Author identifies who posted a message on the source platform.
type Author struct {
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
}

// EmbedField is a single name/value pair inside an embed.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is structured content attached to a message.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// Message is a single message fetched from the source platform.
// Messages are read-only to the pipeline: identity is the ID, ordering
// is by Timestamp.
type Message struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Embeds    []Embed   `json:"embeds,omitempty"`
}

// IsFrom reports whether the message was authored by the given identity.
// An empty discriminator matches any discriminator.
func (m Message) IsFrom(username, discriminator string) bool {
	if m.Author.Username != username {
		return false
	}
	return discriminator == "" || m.Author.Discriminator == discriminator
}

// Channel is a logical message stream on the source platform and the unit
// of partitioning for storage.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	ParentID string `json:"parent_id,omitempty"`
}

// Notification is the value the pipeline hands to notification sinks.
// The sink decides delivery and applies duplicate suppression.
type Notification struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}
