package telegram

// Config holds the Telegram sink configuration.
type Config struct {
	// Token is the Bot API token.
	Token string `yaml:"token"`

	// ChatID is the single chat reports are delivered to; commands from
	// any other chat are ignored.
	ChatID int64 `yaml:"chat_id"`

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `yaml:"base_url,omitempty"`

	// PollingTimeout is the long-poll timeout in seconds.
	PollingTimeout int `yaml:"polling_timeout,omitempty"`

	// Commands disables the command poller when false; the sink then only
	// pushes reports.
	Commands bool `yaml:"commands"`
}

const defaultPollingTimeout = 100

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.telegram.org"
	}
	if c.PollingTimeout <= 0 {
		c.PollingTimeout = defaultPollingTimeout
	}
}
