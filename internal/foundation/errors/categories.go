package errors

import (
	"maps"
	"slices"
)

// ErrorCategory routes an error to an exit code or HTTP status.
type ErrorCategory string

const (
	// CategoryConfig covers the config file, CLI flags and site registration misuse.
	CategoryConfig ErrorCategory = "config"
	// CategoryValidation covers bad page data: frontmatter, dates, statuses, permalinks.
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Content pipeline failures.
	CategoryHighlight ErrorCategory = "highlight"
	CategoryRender    ErrorCategory = "render"
	CategoryBuild     ErrorCategory = "build"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity is how far an error propagates through a build.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // aborts the build
	SeverityError   ErrorSeverity = "error"   // fails one operation
	SeverityWarning ErrorSeverity = "warning" // output is still written
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext is the structured detail attached to an error, such as the
// page path or layout name that failed.
type ErrorContext map[string]any

// Set stores value under key, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		return ErrorContext{key: value}
	}
	c[key] = value
	return c
}

// Get looks up key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString looks up key and reports false unless the value is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Keys returns the context keys in sorted order.
func (c ErrorContext) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Merge returns a new context holding both sets of keys; other wins on conflict.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	switch {
	case len(c) == 0:
		return other
	case len(other) == 0:
		return c
	}
	out := maps.Clone(c)
	maps.Copy(out, other)
	return out
}
