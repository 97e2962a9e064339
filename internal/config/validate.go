package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if err := ensurePositive(
		positiveField{"transcode.workers", c.Transcode.Workers},
		positiveField{"transcode.probe_timeout_seconds", c.Transcode.ProbeTimeoutSeconds},
	); err != nil {
		return err
	}
	if c.Transcode.JobTimeoutSeconds < 0 {
		return errors.New("transcode.job_timeout_seconds must be >= 0 (0 disables the timeout)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn, or error)", c.Logging.Level)
	}
}

type positiveField struct {
	key   string
	value int
}

// ensurePositive reports the first non-positive field in argument order.
func ensurePositive(fields ...positiveField) error {
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive", f.key)
		}
	}
	return nil
}
