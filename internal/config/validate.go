package config

import (
	"path/filepath"
	"time"
	_ "time/tzdata"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/project"
)

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if filepath.Clean(c.Input) == filepath.Clean(c.Output) {
		return ferrors.ConfigError("input and output directories must differ").
			WithContext("input", c.Input).
			WithContext("output", c.Output).
			Build()
	}
	if _, err := project.ParsePolicy(c.Collections.Projects.Sort); err != nil {
		return err
	}
	if _, err := logLevelNormalizer.NormalizeWithError(c.Logging.Level); err != nil {
		return ferrors.ConfigError("invalid logging level").WithCause(err).Build()
	}
	if _, err := logFormatNormalizer.NormalizeWithError(c.Logging.Format); err != nil {
		return ferrors.ConfigError("invalid logging format").WithCause(err).Build()
	}
	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		return ferrors.ConfigError("invalid site timezone").
			WithContext("timezone", c.Site.Timezone).
			WithCause(err).
			Build()
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return ferrors.ConfigError("serve port out of range").
			WithContext("port", c.Serve.Port).
			Build()
	}
	if c.Serve.Debounce < 0 || c.Serve.RebuildInterval < 0 {
		return ferrors.ConfigError("serve durations must not be negative").Build()
	}
	if c.Serve.RebuildInterval > 0 && c.Serve.RebuildInterval < time.Second {
		return ferrors.ConfigError("serve rebuild_interval must be at least 1s").
			WithContext("rebuild_interval", c.Serve.RebuildInterval.String()).
			Build()
	}
	if c.Highlight.IndentSize < 0 {
		return ferrors.ConfigError("highlight indent_size must be positive").Build()
	}
	return nil
}
