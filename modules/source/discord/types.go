package discord

import (
	"fmt"
	"time"

	"github.com/wirereport/wirereport/pkg/feed"
)

// channelTypeText is the Discord channel type for standard text channels.
const channelTypeText = 0

// apiChannel is the wire shape of a guild channel.
type apiChannel struct {
	ID       string `json:"id"`
	Type     int    `json:"type"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	ParentID string `json:"parent_id"`
}

// apiMessage is the wire shape of a channel message.
type apiMessage struct {
	ID        string     `json:"id"`
	Author    apiAuthor  `json:"author"`
	Timestamp string     `json:"timestamp"`
	Content   string     `json:"content"`
	Embeds    []apiEmbed `json:"embeds"`
}

type apiAuthor struct {
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

type apiEmbed struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Fields      []apiEmbedField `json:"fields"`
}

type apiEmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c apiChannel) toFeed() feed.Channel {
	return feed.Channel{
		ID:       c.ID,
		Name:     c.Name,
		Position: c.Position,
		ParentID: c.ParentID,
	}
}

func (m apiMessage) toFeed() (feed.Message, error) {
	ts, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		return feed.Message{}, fmt.Errorf("discord: parse timestamp %q: %w", m.Timestamp, err)
	}

	msg := feed.Message{
		ID: m.ID,
		Author: feed.Author{
			Username:      m.Author.Username,
			Discriminator: m.Author.Discriminator,
		},
		Timestamp: ts.UTC(),
		Content:   m.Content,
	}
	for _, e := range m.Embeds {
		embed := feed.Embed{Title: e.Title, Description: e.Description}
		for _, f := range e.Fields {
			embed.Fields = append(embed.Fields, feed.EmbedField{Name: f.Name, Value: f.Value})
		}
		msg.Embeds = append(msg.Embeds, embed)
	}
	return msg, nil
}
