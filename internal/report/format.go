package report

import (
	"strings"

	"github.com/wirereport/wirereport/internal/store"
	"github.com/wirereport/wirereport/pkg/feed"
)

// timestampLayout is the leading line of every formatted record. It doubles
// as the record's identity key in the message log.
const timestampLayout = "2006-01-02 15:04 UTC"

// excludedFieldName is the embed field dropped during rendering: it carries
// the upstream attribution link, which is noise to the summarizer.
const excludedFieldName = "source"

// FormatMessage renders one message into its normalized text block:
// timestamp line, body text, then any embed titles, descriptions, and
// fields.
func FormatMessage(msg feed.Message) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(msg.Timestamp.UTC().Format(timestampLayout))
	b.WriteString("]")

	if msg.Content != "" {
		b.WriteString("\n")
		b.WriteString(msg.Content)
	}
	for _, embed := range msg.Embeds {
		if embed.Title != "" {
			b.WriteString("\nTitle: ")
			b.WriteString(embed.Title)
		}
		if embed.Description != "" {
			b.WriteString("\nDescription: ")
			b.WriteString(embed.Description)
		}
		for _, field := range embed.Fields {
			if strings.EqualFold(field.Name, excludedFieldName) {
				continue
			}
			b.WriteString("\n")
			b.WriteString(field.Name)
			b.WriteString(": ")
			b.WriteString(field.Value)
		}
	}
	return b.String()
}

// FormatMessages renders a window of messages into the delimited blob fed
// to both the message log and the summarization prompt.
func FormatMessages(msgs []feed.Message) string {
	records := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		records = append(records, FormatMessage(msg))
	}
	return strings.Join(records, store.RecordDelimiter)
}
