package discord

import "strings"

// eligible reports whether a guild channel is part of the curated feed.
// A channel qualifies when its name starts with one of the allowed
// prefixes, sorts above the position cap, and contains no excluded
// substring. Channels under an overridden parent category are always in.
func (f FilterConfig) eligible(ch apiChannel) bool {
	if ch.Type != channelTypeText {
		return false
	}
	for _, parent := range f.ParentOverrides {
		if ch.ParentID == parent {
			return true
		}
	}

	prefixed := false
	for _, prefix := range f.AllowedPrefixes {
		if strings.HasPrefix(ch.Name, prefix) {
			prefixed = true
			break
		}
	}
	if !prefixed {
		return false
	}
	for _, sub := range f.ExcludeSubstrings {
		if strings.Contains(ch.Name, sub) {
			return false
		}
	}
	return ch.Position < f.MaxPosition
}

// filterChannels applies the eligibility rules to a guild listing.
func (f FilterConfig) filterChannels(channels []apiChannel) []apiChannel {
	var out []apiChannel
	for _, ch := range channels {
		if f.eligible(ch) {
			out = append(out, ch)
		}
	}
	return out
}
