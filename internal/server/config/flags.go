package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/flagx"
)

// parseFlags populates selected service Config fields from command-line flags.
//
// Supported flags:
//
//	-m string   mailbox file path
//	-w string   watch mode: auto | notify | poll
//	-i int      poll interval, milliseconds
//	-t int      reminder acknowledgement timeout, seconds (0 waits forever)
//	-r int      re-sends of an unacknowledged reminder before giving up
//	-u string   users backend: json | postgres
//	-f string   users.json path
//	-d string   PostgreSQL DSN
//	-g string   goals backend: file | s3
//	-D string   goal data directory
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-z string   time zone for rendered deadlines
//	-x string   metrics textfile path
//	-l string   log level
//	-legacy     unframed messages
//	-import-users  copy users.json into PostgreSQL at start
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-m", "-w", "-i", "-t", "-r", "-u", "-f", "-d", "-g", "-D", "-b", "-e", "-z", "-x", "-l",
		"-legacy", "-import-users",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.MailboxPath, "m", config.MailboxPath, "mailbox file path")
	fs.StringVar(&config.WatchMode, "w", config.WatchMode, "watch mode: auto, notify or poll")
	pollInterval := fs.Int("i", int(config.PollInterval.Milliseconds()), "poll interval (in milliseconds)")
	ackTimeout := fs.Int("t", int(config.AckTimeout.Seconds()), "reminder ack timeout (in seconds, 0 = wait forever)")
	fs.IntVar(&config.AckRetries, "r", config.AckRetries, "reminder re-sends before giving up")
	fs.StringVar(&config.UsersBackend, "u", config.UsersBackend, "users backend: json or postgres")
	fs.StringVar(&config.UsersFile, "f", config.UsersFile, "users file")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.GoalsBackend, "g", config.GoalsBackend, "goals backend: file or s3")
	fs.StringVar(&config.DataDir, "D", config.DataDir, "goal data directory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.TimeZone, "z", config.TimeZone, "time zone for deadlines")
	fs.StringVar(&config.MetricsFile, "x", config.MetricsFile, "metrics textfile path")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.Legacy, "legacy", config.Legacy, "exchange unframed messages")
	fs.BoolVar(&config.ImportUsers, "import-users", config.ImportUsers, "copy users file into PostgreSQL at start")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PollInterval = time.Duration(*pollInterval) * time.Millisecond
	config.AckTimeout = time.Duration(*ackTimeout) * time.Second
}
