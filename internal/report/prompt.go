package report

import (
	"strings"

	"github.com/wirereport/wirereport/pkg/feed"
)

// systemPrompt frames every summarization request.
const systemPrompt = `You are an experienced news wire journalist creating concise, clear updates. Your task is to report the latest developments while maintaining narrative continuity with previous coverage. Focus on what's new and noteworthy, using prior context only when it enhances understanding of current events.`

const promptRequirements = `Requirements:
- Start with ONE headline in ALL CAPS that captures the most significant development
- Second line must be in format: City, Month Day, Year (use location of main development)
- First paragraph must summarize the most important verified development
- Subsequent paragraphs should cover other significant developments
- Do NOT include additional headlines - weave all events into a cohesive narrative
- Maximum 4096 characters, average 2500 characters
- Only include verified facts and direct quotes from official statements
- Maintain strictly neutral tone - avoid loaded terms or partisan framing
- NO analysis, commentary, or speculation
- NO use of terms like "likely", "appears to", or "is seen as"

When incorporating previous context:
- Focus primarily on new developments from the current timeframe
- Reference previous events only if they directly relate to new developments
- Avoid repeating old information unless it provides crucial context
- If a situation has evolved, clearly indicate what has changed
- Maintain chronological clarity when connecting past and present events

Example format:
MAJOR DEVELOPMENT OCCURS IN REGION
Tel Aviv, March 20, 2024

First paragraph with main verified development...`

const contextPeriodLayout = "January 2, 2006 15:04"

// buildPrompt assembles the user prompt: an optional context block carrying
// the previous report for the same timeframe, then the formatted updates,
// then the fixed requirements.
func buildPrompt(formattedMessages string, previous *feed.Summary) string {
	var b strings.Builder

	b.WriteString("Create a concise, journalistic report covering the key developments, incorporating context from the previous report when relevant.\n\n")

	if previous != nil {
		b.WriteString("CONTEXT FROM PREVIOUS REPORT\n")
		b.WriteString("Time period: ")
		b.WriteString(previous.PeriodStart.UTC().Format(contextPeriodLayout))
		b.WriteString(" to ")
		b.WriteString(previous.PeriodEnd.UTC().Format(contextPeriodLayout))
		b.WriteString(" UTC\n\n")
		b.WriteString(previous.Content.Text())
		b.WriteString("\n\n-------------------\nNEW UPDATES TO INCORPORATE\n\n")
	}

	b.WriteString("Updates to analyze:\n")
	b.WriteString(formattedMessages)
	b.WriteString("\n\n")
	b.WriteString(promptRequirements)
	return b.String()
}
