package discord

// Config holds the Discord source configuration.
type Config struct {
	// Token is the raw Authorization header value for the Discord API.
	Token string `yaml:"token"`

	// GuildID is the guild whose channels are monitored.
	GuildID string `yaml:"guild_id"`

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `yaml:"base_url,omitempty"`

	// BotUsername and BotDiscriminator identify the feed bot whose
	// messages make up the report windows.
	BotUsername      string `yaml:"bot_username"`
	BotDiscriminator string `yaml:"bot_discriminator,omitempty"`

	// Filter selects which guild channels are eligible for reporting.
	Filter FilterConfig `yaml:"filter,omitempty"`
}

// FilterConfig describes the channel eligibility rules.
type FilterConfig struct {
	// AllowedPrefixes are the channel-name prefixes (emoji markers) that
	// opt a channel in.
	AllowedPrefixes []string `yaml:"allowed_prefixes,omitempty"`

	// MaxPosition excludes channels sorted below this position.
	MaxPosition int `yaml:"max_position,omitempty"`

	// ExcludeSubstrings drops any channel whose name contains one of
	// these, regardless of prefix.
	ExcludeSubstrings []string `yaml:"exclude_substrings,omitempty"`

	// ParentOverrides are category IDs whose channels are always
	// eligible, bypassing the other rules.
	ParentOverrides []string `yaml:"parent_overrides,omitempty"`
}

const defaultBaseURL = "https://discord.com/api/v10"

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if len(c.Filter.AllowedPrefixes) == 0 {
		c.Filter.AllowedPrefixes = []string{"🟡", "🔴", "🟠", "⚫"}
	}
	if c.Filter.MaxPosition <= 0 {
		c.Filter.MaxPosition = 30
	}
	if len(c.Filter.ExcludeSubstrings) == 0 {
		c.Filter.ExcludeSubstrings = []string{"godly-chat"}
	}
}
