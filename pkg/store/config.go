package store

import (
	"time"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// Config configures one profile's IndexStore file.
type Config struct {
	// Path is the sqlite file path. ":memory:" opens an in-memory database,
	// used by tests.
	Path string `mapstructure:"path" validate:"required"`

	// BusyTimeout bounds how long sqlite waits on a locked database before
	// returning SQLITE_BUSY. Default 5s.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// StaleObjectHours feeds purge_stale_objects' default window when the
	// caller doesn't pass an explicit one. Default 720h (30 days).
	StaleObjectHours int `mapstructure:"stale_object_hours"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.StaleObjectHours == 0 {
		c.StaleObjectHours = 720
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errs.New(errs.ConfigError, "path is required")
	}
	return nil
}
