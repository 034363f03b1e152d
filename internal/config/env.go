package config

import (
	"fmt"
	"os"
	"strconv"
)

const envPrefix = "TICKETBOX_"

// ApplyEnv overlays TICKETBOX_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(envPrefix + "CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCAPACITY: %w", envPrefix, err)
		}
		cfg.Mailbox.Capacity = n
	}
	if v := os.Getenv(envPrefix + "LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv(envPrefix + "RETRY_AFTER_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_AFTER_SECONDS: %w", envPrefix, err)
		}
		cfg.HTTP.RetryAfterSeconds = n
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(envPrefix + "METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS: %w", envPrefix, err)
		}
		cfg.Metrics.Enabled = b
	}
	return nil
}
