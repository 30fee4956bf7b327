package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/goalkeeper/internal/flagx"
	"github.com/dmitrijs2005/goalkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Absent keys keep defaults.
type JsonConfig struct {
	MailboxPath     *string         `json:"mailbox_path"`
	PollInterval    *timex.Duration `json:"poll_interval"`
	ResponseTimeout *timex.Duration `json:"response_timeout"`
	InboxDSN        *string         `json:"inbox_dsn"`
	Legacy          *bool           `json:"legacy"`
	LogLevel        *string         `json:"log_level"`
}

func parseJson(c *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	j := &JsonConfig{}
	if err := json.Unmarshal(file, j); err != nil {
		panic(err)
	}

	if j.MailboxPath != nil {
		c.MailboxPath = *j.MailboxPath
	}
	if j.PollInterval != nil {
		c.PollInterval = j.PollInterval.Duration
	}
	if j.ResponseTimeout != nil {
		c.ResponseTimeout = j.ResponseTimeout.Duration
	}
	if j.InboxDSN != nil {
		c.InboxDSN = *j.InboxDSN
	}
	if j.Legacy != nil {
		c.Legacy = *j.Legacy
	}
	if j.LogLevel != nil {
		c.LogLevel = *j.LogLevel
	}
}
