// Package config loads runtime configuration for the goalkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c / -config or $GOALKEEPER_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-m string   mailbox file path
//	-i int      response poll interval (milliseconds)
//	-t int      response timeout (seconds)
//	-s string   reminder inbox SQLite DSN
//	-l string   log level
//	-legacy     exchange unframed messages
//
// # JSON schema
//
// Durations accept strings like "500ms" or integer nanoseconds:
//
//	{
//	  "mailbox_path": "PipelineFiles/login.txt",
//	  "poll_interval": "500ms",
//	  "response_timeout": "30s",
//	  "inbox_dsn": "goalkeeper-client.db",
//	  "legacy": false,
//	  "log_level": "warn"
//	}
package config
