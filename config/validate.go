package config

import (
	"strings"

	"github.com/vandanapadala-pg/hotcommands/errors"
)

// Validate checks a loaded configuration for values no component can run
// with. Zero values that have sensible runtime fallbacks pass.
func Validate(cfg *Config) error {
	if cfg.Database.Path == "" {
		return errors.Wrap(errors.ErrInvalidRequest, "database.path must not be empty")
	}
	if cfg.Engine.InvocationTimeoutSeconds < 0 {
		return errors.Wrap(errors.ErrInvalidRequest, "engine.invocation_timeout_seconds must not be negative")
	}
	if cfg.Engine.MaxToolRetries < 0 {
		return errors.Wrap(errors.ErrInvalidRequest, "engine.max_tool_retries must not be negative")
	}
	if cfg.Translator.BaseURL != "" &&
		!strings.HasPrefix(cfg.Translator.BaseURL, "http://") &&
		!strings.HasPrefix(cfg.Translator.BaseURL, "https://") {
		return errors.Wrapf(errors.ErrInvalidRequest, "translator.base_url %q must be an http(s) URL", cfg.Translator.BaseURL)
	}
	if cfg.Translator.RequestsPerMinute < 0 {
		return errors.Wrap(errors.ErrInvalidRequest, "translator.requests_per_minute must not be negative")
	}
	return nil
}
