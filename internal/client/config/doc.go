// Package config loads runtime configuration for the DreamWell CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. A .env file in the working directory, then DREAMWELL_* environment
//     variables.
//  4. Command-line flags, which override everything before them.
//
// Supported flags
//
//	-a string   API base URL
//	-s string   credential store: sqlite, redis or memory
//	-d string   store location (SQLite path or Redis address)
//	-i int      proactive refresh check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://dreamwell.example.com/api",
//	  "store": "sqlite",
//	  "store_path": "/home/me/.config/dreamwell/session.db",
//	  "request_timeout": "30s",
//	  "refresh_check_interval": "30s",
//	  "s3": {"region": "eu-west-1"}
//	}
package config
