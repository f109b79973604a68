package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/client/export"
)

// Store kinds accepted by StoreKind.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds runtime settings for the DreamWell CLI.
type Config struct {
	APIBaseURL string `env:"DREAMWELL_API_URL"`

	StoreKind     string        `env:"DREAMWELL_STORE"`
	StorePath     string        `env:"DREAMWELL_STORE_PATH"`
	RedisAddr     string        `env:"DREAMWELL_REDIS_ADDR"`
	RedisPassword string        `env:"DREAMWELL_REDIS_PASSWORD"`
	RedisPrefix   string        `env:"DREAMWELL_REDIS_PREFIX"`
	RedisTTL      time.Duration `env:"DREAMWELL_REDIS_TTL"`
	// Passphrase, when set, seals stored credentials.
	Passphrase string `env:"DREAMWELL_PASSPHRASE"`

	RequestTimeout       time.Duration `env:"DREAMWELL_REQUEST_TIMEOUT"`
	RefreshCheckInterval time.Duration `env:"DREAMWELL_REFRESH_CHECK_INTERVAL"`
	RefreshLeeway        time.Duration `env:"DREAMWELL_REFRESH_LEEWAY"`
	LogLevel             string        `env:"DREAMWELL_LOG_LEVEL"`

	S3 export.S3Config `env-prefix:"DREAMWELL_"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080/api"
	c.StoreKind = StoreSQLite
	c.StorePath = defaultStorePath()
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "dreamwell"
	c.RequestTimeout = 30 * time.Second
	c.RefreshCheckInterval = 30 * time.Second
	c.RefreshLeeway = time.Minute
	c.LogLevel = "warn"
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".dreamwell", "session.db")
	}
	return filepath.Join(dir, "dreamwell", "session.db")
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.StoreKind {
	case StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("store path is required for %s store", c.StoreKind)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address is required for %s store", c.StoreKind)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store kind %q", c.StoreKind)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// Load builds a Config from defaults, then the JSON file named by -c/-config,
// then .env and the environment, then flags. Later sources win.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, ".env"); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on invalid configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
