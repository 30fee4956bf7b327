package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/flagx"
	"github.com/dmitrijs2005/goalkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the service configuration. Durations
// use timex.Duration so "500ms" and integer nanoseconds are both accepted.
// Fields left out of the file keep their defaults.
type JsonConfig struct {
	MailboxPath    *string         `json:"mailbox_path"`
	WatchMode      *string         `json:"watch_mode"`
	PollInterval   *timex.Duration `json:"poll_interval"`
	TickInterval   *timex.Duration `json:"tick_interval"`
	AckTimeout     *timex.Duration `json:"ack_timeout"`
	AckRetries     *int            `json:"ack_retries"`
	UsersBackend   *string         `json:"users_backend"`
	UsersFile      *string         `json:"users_file"`
	DatabaseDSN    *string         `json:"database_dsn"`
	ImportUsers    *bool           `json:"import_users"`
	GoalsBackend   *string         `json:"goals_backend"`
	DataDir        *string         `json:"data_dir"`
	S3RootUser     *string         `json:"s3_root_user"`
	S3RootPassword *string         `json:"s3_root_password"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Prefix       *string         `json:"s3_prefix"`
	S3Region       *string         `json:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	TimeZone       *string         `json:"time_zone"`
	MetricsFile    *string         `json:"metrics_file"`
	Legacy         *bool           `json:"legacy"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays config with the JSON file named by -c/-config or
// $GOALKEEPER_CONFIG. It panics if the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.MailboxPath, c.MailboxPath)
	setString(&config.WatchMode, c.WatchMode)
	setDuration(&config.PollInterval, c.PollInterval)
	setDuration(&config.TickInterval, c.TickInterval)
	setDuration(&config.AckTimeout, c.AckTimeout)
	if c.AckRetries != nil {
		config.AckRetries = *c.AckRetries
	}
	setString(&config.UsersBackend, c.UsersBackend)
	setString(&config.UsersFile, c.UsersFile)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setBool(&config.ImportUsers, c.ImportUsers)
	setString(&config.GoalsBackend, c.GoalsBackend)
	setString(&config.DataDir, c.DataDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Prefix, c.S3Prefix)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.TimeZone, c.TimeZone)
	setString(&config.MetricsFile, c.MetricsFile)
	setBool(&config.Legacy, c.Legacy)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
