package config

import (
	"errors"
	"fmt"
)

var validLogLevels = map[string]bool{
	"": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"": true, "text": true, "json": true,
}

// Validate checks the structural validity of a Config. It verifies the
// version field, the logging settings, and every component section,
// accumulating all problems into a single error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if !validLogLevels[cfg.Log.Level] {
		errs = append(errs, fmt.Errorf("config: log.level %q is not one of debug, info, warn, error", cfg.Log.Level))
	}
	if !validLogFormats[cfg.Log.Format] {
		errs = append(errs, fmt.Errorf("config: log.format %q is not one of text, json", cfg.Log.Format))
	}

	if cfg.History.Retention < 0 {
		errs = append(errs, errors.New("config: history.retention must not be negative"))
	}
	if cfg.History.Retention > 0 && cfg.History.Path == "" {
		errs = append(errs, errors.New("config: history.retention requires history.path"))
	}

	if err := cfg.Pacing.Normalized().Validate(); err != nil {
		errs = append(errs, err)
	}

	if cfg.Ingest.HistoryContext < 0 {
		errs = append(errs, errors.New("config: ingest.history_context must not be negative"))
	}

	if cfg.Channels.Chunk.MaxLength < 0 {
		errs = append(errs, errors.New("config: channels.chunk.max_length must not be negative"))
	}

	return errors.Join(errs...)
}
