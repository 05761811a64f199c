package config

import "time"

// Defaults applied by Load.
const (
	DefaultInput           = "src"
	DefaultOutput          = "dist"
	DefaultTimezone        = "America/New_York"
	DefaultProjectsTag     = "projects"
	DefaultProjectsSort    = "status"
	DefaultPostsTag        = "post"
	DefaultHighlightTheme  = "github-dark"
	DefaultIndentSize      = 2
	DefaultServeHost       = "localhost"
	DefaultServePort       = 8080
	DefaultServeDebounce   = 300 * time.Millisecond
	DefaultMetricsPath     = "/metrics"
	DefaultSiteTitle       = "Personal Site"
	defaultLogLevelSetting = "info"
)

// DefaultPassthrough copies fonts, images, scripts, the public key and the
// favicon. Patterns are relative to the project root.
func DefaultPassthrough(input string) []string {
	return []string{
		input + "/assets/fonts/**/*",
		input + "/assets/images/**/*",
		input + "/assets/js/**/*",
		input + "/publickey.asc",
		input + "/favicon.ico",
	}
}

func (c *Config) applyDefaults() {
	if c.Input == "" {
		c.Input = DefaultInput
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Passthrough == nil {
		c.Passthrough = DefaultPassthrough(c.Input)
	}
	if c.Site.Title == "" {
		c.Site.Title = DefaultSiteTitle
	}
	if c.Site.Timezone == "" {
		c.Site.Timezone = DefaultTimezone
	}
	if c.Collections.Projects.Tag == "" {
		c.Collections.Projects.Tag = DefaultProjectsTag
	}
	if c.Collections.Projects.Sort == "" {
		c.Collections.Projects.Sort = DefaultProjectsSort
	}
	if c.Posts.Tag == "" {
		c.Posts.Tag = DefaultPostsTag
	}
	if c.Highlight.Theme == "" {
		c.Highlight.Theme = DefaultHighlightTheme
	}
	if c.Highlight.IndentSize == 0 {
		c.Highlight.IndentSize = DefaultIndentSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevelSetting
	}
	if c.Logging.Format == "" {
		c.Logging.Format = string(LogFormatText)
	}
	if c.Serve.Host == "" {
		c.Serve.Host = DefaultServeHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultServePort
	}
	if c.Serve.Debounce == 0 {
		c.Serve.Debounce = DefaultServeDebounce
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
