// Package config loads ticketd settings from an optional TOML file and
// TICKETBOX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type (
	Config struct {
		Mailbox Mailbox `toml:"mailbox"`
		HTTP    HTTP    `toml:"http"`
		Log     Log     `toml:"log"`
		Metrics Metrics `toml:"metrics"`
	}

	Mailbox struct {
		Capacity int `toml:"capacity"`
	}

	HTTP struct {
		Listen            string `toml:"listen"`
		RetryAfterSeconds int    `toml:"retry_after_seconds"`
	}

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	}

	Metrics struct {
		Enabled bool `toml:"enabled"`
	}
)

func Default() Config {
	return Config{
		Mailbox: Mailbox{Capacity: 64},
		HTTP:    HTTP{Listen: ":8080", RetryAfterSeconds: 1},
		Log:     Log{Level: "info", Format: "text"},
		Metrics: Metrics{Enabled: true},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. A missing file is only an error when path was given
// explicitly; an empty path means defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("config file %s does not exist", path)
		case err != nil:
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := toml.NewDecoder(f).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Mailbox.Capacity < 0 {
		errs = append(errs, fmt.Errorf("mailbox.capacity must not be negative, got %d", c.Mailbox.Capacity))
	}
	if c.HTTP.Listen == "" {
		errs = append(errs, errors.New("http.listen is required"))
	}
	if c.HTTP.RetryAfterSeconds < 1 {
		errs = append(errs, fmt.Errorf("http.retry_after_seconds must be at least 1, got %d", c.HTTP.RetryAfterSeconds))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
