package config

import "time"

// Config holds runtime settings for the goalkeeper client.
type Config struct {
	MailboxPath     string
	PollInterval    time.Duration
	ResponseTimeout time.Duration
	InboxDSN        string
	Legacy          bool
	LogLevel        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.MailboxPath = "PipelineFiles/login.txt"
	c.PollInterval = 500 * time.Millisecond
	c.ResponseTimeout = 30 * time.Second
	c.InboxDSN = "goalkeeper-client.db"
	c.Legacy = false
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
