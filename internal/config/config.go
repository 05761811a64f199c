// Package config loads the sitebuilder.yaml configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "sitebuilder.yaml"

// Config represents the application configuration
type Config struct {
	Site        SiteConfig        `yaml:"site"`
	Input       string            `yaml:"input"`
	Output      string            `yaml:"output"`
	Passthrough []string          `yaml:"passthrough,omitempty"`
	Collections CollectionsConfig `yaml:"collections"`
	Posts       PostsConfig       `yaml:"posts"`
	Markdown    MarkdownConfig    `yaml:"markdown"`
	Highlight   HighlightConfig   `yaml:"highlight"`
	Build       BuildConfig       `yaml:"build"`
	Logging     LoggingConfig     `yaml:"logging"`
	Serve       ServeConfig       `yaml:"serve"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// SiteConfig is published to templates as the "site" global.
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url,omitempty"`
	// Timezone is used by the formatLocalDate filter and the buildDate global.
	Timezone string `yaml:"timezone"`
}

// CollectionsConfig configures the built-in custom collections.
type CollectionsConfig struct {
	Projects ProjectsCollection `yaml:"projects"`
}

// ProjectsCollection configures the ordered projects collection.
type ProjectsCollection struct {
	Tag  string `yaml:"tag"`
	Sort string `yaml:"sort"` // status | priority
}

// PostsConfig selects which pages receive computed post metadata.
type PostsConfig struct {
	Tag string `yaml:"tag"`
}

// MarkdownConfig configures goldmark.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions,omitempty"`
	UnsafeHTML *bool    `yaml:"unsafe_html,omitempty"`
}

// AllowsRawHTML reports whether raw HTML in Markdown is passed through.
func (m MarkdownConfig) AllowsRawHTML() bool {
	return m.UnsafeHTML == nil || *m.UnsafeHTML
}

// HighlightConfig configures the syntax highlighter.
type HighlightConfig struct {
	Theme           string   `yaml:"theme"`
	Languages       []string `yaml:"languages,omitempty"`
	Transformers    []string `yaml:"transformers,omitempty"`
	IndentSize      int      `yaml:"indent_size,omitempty"`
	StrictLanguages bool     `yaml:"strict_languages,omitempty"`
}

// BuildConfig controls the output directory handling.
type BuildConfig struct {
	Clean *bool `yaml:"clean,omitempty"` // Clean output directory before build
	// Report is an optional path for the JSON build report.
	Report string `yaml:"report,omitempty"`
}

// CleansOutput reports whether the output directory is emptied before a build.
func (b BuildConfig) CleansOutput() bool {
	return b.Clean == nil || *b.Clean
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Debounce time.Duration `yaml:"debounce"`
	// RebuildInterval triggers periodic rebuilds so the build instant stays
	// fresh. Zero disables them.
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint of the preview server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load loads configuration from the specified file. A missing file at the
// default path yields the defaults; a missing explicit file is an error.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, ferrors.ConfigError("failed to parse configuration").
				WithContext("path", configPath).
				WithCause(err).
				Build()
		}
	case os.IsNotExist(err) && configPath == DefaultPath:
	case os.IsNotExist(err):
		return nil, ferrors.NewError(ferrors.CategoryNotFound, "configuration file not found").
			Fatal().
			WithContext("path", configPath).
			Build()
	default:
		return nil, ferrors.ConfigError("failed to read configuration").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Site.Title = "My Site"
	example.Site.BaseURL = "https://example.com"
	example.Highlight.Languages = []string{"go", "bash", "yaml", "javascript", "html", "css"}

	var sb strings.Builder
	sb.WriteString("# sitebuilder configuration\n")
	sb.WriteString("# Values may reference environment variables as ${NAME}.\n")
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(example); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(sb.String()), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	}
	return nil
}
