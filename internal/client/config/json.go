package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dreamwell/internal/client/export"
	"github.com/dmitrijs2005/dreamwell/internal/flagx"
	"github.com/dmitrijs2005/dreamwell/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields left out of the file keep their earlier values.
type JsonConfig struct {
	APIBaseURL           string           `json:"api_base_url"`
	StoreKind            string           `json:"store"`
	StorePath            string           `json:"store_path"`
	RedisAddr            string           `json:"redis_addr"`
	RedisPassword        string           `json:"redis_password"`
	RedisPrefix          string           `json:"redis_prefix"`
	RedisTTL             *timex.Duration  `json:"redis_ttl"`
	Passphrase           string           `json:"passphrase"`
	RequestTimeout       *timex.Duration  `json:"request_timeout"`
	RefreshCheckInterval *timex.Duration  `json:"refresh_check_interval"`
	RefreshLeeway        *timex.Duration  `json:"refresh_leeway"`
	LogLevel             string           `json:"log_level"`
	S3                   *export.S3Config `json:"s3"`
}

// parseJSON overlays cfg with the JSON file given by -c or -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoreKind, jc.StoreKind)
	setString(&cfg.StorePath, jc.StorePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPassword, jc.RedisPassword)
	setString(&cfg.RedisPrefix, jc.RedisPrefix)
	setString(&cfg.Passphrase, jc.Passphrase)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.RedisTTL != nil {
		cfg.RedisTTL = jc.RedisTTL.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshCheckInterval != nil {
		cfg.RefreshCheckInterval = jc.RefreshCheckInterval.Duration
	}
	if jc.RefreshLeeway != nil {
		cfg.RefreshLeeway = jc.RefreshLeeway.Duration
	}
	if jc.S3 != nil {
		cfg.S3 = *jc.S3
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
