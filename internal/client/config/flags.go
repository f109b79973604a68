package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   API base URL
//	-s string   credential store: sqlite, redis or memory
//	-d string   SQLite file path, or Redis address for the redis store
//	-i int      refresh check interval in seconds
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-d", "-i", "-l"})

	fs := flag.NewFlagSet("dreamwell", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var location string
	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.StoreKind, "s", cfg.StoreKind, "credential store (sqlite, redis, memory)")
	fs.StringVar(&location, "d", "", "store location (file path or redis address)")
	interval := fs.Int("i", int(cfg.RefreshCheckInterval.Seconds()), "refresh check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RefreshCheckInterval = time.Duration(*interval) * time.Second
	if location != "" {
		if cfg.StoreKind == StoreRedis {
			cfg.RedisAddr = location
		} else {
			cfg.StorePath = location
		}
	}
	return nil
}
