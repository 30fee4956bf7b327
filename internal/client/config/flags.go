package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/flagx"
)

// parseFlags overlays c with the flags listed in the package doc. Unknown
// flags are filtered out first; a malformed value panics.
func parseFlags(c *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-m", "-i", "-t", "-s", "-l", "-legacy"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&c.MailboxPath, "m", c.MailboxPath, "mailbox file path")
	pollInterval := fs.Int("i", int(c.PollInterval.Milliseconds()), "response poll interval (in milliseconds)")
	responseTimeout := fs.Int("t", int(c.ResponseTimeout.Seconds()), "response timeout (in seconds)")
	fs.StringVar(&c.InboxDSN, "s", c.InboxDSN, "reminder inbox DSN")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")
	fs.BoolVar(&c.Legacy, "legacy", c.Legacy, "exchange unframed messages")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	c.PollInterval = time.Duration(*pollInterval) * time.Millisecond
	c.ResponseTimeout = time.Duration(*responseTimeout) * time.Second
}
