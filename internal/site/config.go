// Package site is the extension surface of the generator. A Config collects
// directories, passthrough patterns, template filters, collections, global
// data, shortcodes, computed data and Markdown amendments before a build.
package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"reflect"
	"regexp"
	"slices"

	"git.home.luguber.info/inful/sitebuilder/internal/collection"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
)

// ComputedFunc derives data for a page after discovery.
type ComputedFunc func(page *content.Page) error

// Computed binds a ComputedFunc to the pages carrying Tag.
type Computed struct {
	Tag string
	Fn  ComputedFunc
}

// Plugin extends a Config. Apply runs to completion inside AddPlugin.
type Plugin interface {
	Name() string
	Apply(ctx context.Context, cfg *Config) error
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var errorType = reflect.TypeFor[error]()

// Config is the generator configuration. It is not safe for concurrent
// mutation; it is built once and then read by the build.
type Config struct {
	inputDir    string
	outputDir   string
	passthrough []string
	funcs       template.FuncMap
	funcKinds   map[string]string
	collections []collection.Named
	globals     map[string]any
	computed    []Computed
	amendments  []func(*markdown.Options)
	plugins     []string
	errs        []error
}

// New returns an empty Config.
func New() *Config {
	return &Config{
		funcs:     template.FuncMap{},
		funcKinds: map[string]string{},
		globals:   map[string]any{},
	}
}

func (c *Config) fail(err error) {
	c.errs = append(c.errs, err)
}

// Err reports every misuse recorded so far.
func (c *Config) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return ferrors.ConfigError("invalid site configuration").WithCause(errors.Join(c.errs...)).Build()
}

// SetInputDirectory sets the content root.
func (c *Config) SetInputDirectory(dir string) { c.inputDir = dir }

// SetOutputDirectory sets the directory the site is written to.
func (c *Config) SetOutputDirectory(dir string) { c.outputDir = dir }

// AddPassthroughCopy registers a glob of files copied unchanged.
func (c *Config) AddPassthroughCopy(glob string) {
	if glob == "" {
		c.fail(errors.New("empty passthrough pattern"))
		return
	}
	c.passthrough = append(c.passthrough, glob)
}

// AddFilter registers a template function. fn must be a function returning
// one value, or a value and an error.
func (c *Config) AddFilter(name string, fn any) {
	c.addFunc("filter", name, fn)
}

// AddShortcode registers a template function that is usually called without
// arguments, such as {{ year }}.
func (c *Config) AddShortcode(name string, fn any) {
	c.addFunc("shortcode", name, fn)
}

func (c *Config) addFunc(kind, name string, fn any) {
	if !identifier.MatchString(name) {
		c.fail(fmt.Errorf("%s name %q is not a valid identifier", kind, name))
		return
	}
	if prev, dup := c.funcKinds[name]; dup {
		c.fail(fmt.Errorf("%s %q already registered as a %s", kind, name, prev))
		return
	}
	if err := checkFunc(fn); err != nil {
		c.fail(fmt.Errorf("%s %q: %w", kind, name, err))
		return
	}
	c.funcs[name] = fn
	c.funcKinds[name] = kind
}

func checkFunc(fn any) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("must be a function, got %T", fn)
	}
	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if t.Out(1) == errorType {
			return nil
		}
	}
	return errors.New("must return a value or a value and an error")
}

// AddCollection registers a custom collection.
func (c *Config) AddCollection(name string, fn collection.Func) {
	if name == "" || fn == nil {
		c.fail(errors.New("collection needs a name and a function"))
		return
	}
	for _, existing := range c.collections {
		if existing.Name == name {
			c.fail(fmt.Errorf("collection %q already registered", name))
			return
		}
	}
	c.collections = append(c.collections, collection.Named{Name: name, Fn: fn})
}

// AddGlobalData registers a global template value. value may be a function
// of no arguments returning a value (and optionally an error); it is called
// once per build.
func (c *Config) AddGlobalData(name string, value any) {
	if !identifier.MatchString(name) {
		c.fail(fmt.Errorf("global data name %q is not a valid identifier", name))
		return
	}
	if _, dup := c.globals[name]; dup {
		c.fail(fmt.Errorf("global data %q already registered", name))
		return
	}
	if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Func {
		if t.NumIn() != 0 {
			c.fail(fmt.Errorf("global data %q: function must take no arguments", name))
			return
		}
		if err := checkFunc(value); err != nil {
			c.fail(fmt.Errorf("global data %q: %w", name, err))
			return
		}
	}
	c.globals[name] = value
}

// AddComputedData registers fn for every page tagged tag.
func (c *Config) AddComputedData(tag string, fn ComputedFunc) {
	if tag == "" || fn == nil {
		c.fail(errors.New("computed data needs a tag and a function"))
		return
	}
	c.computed = append(c.computed, Computed{Tag: tag, Fn: fn})
}

// AmendMarkdown registers a change to the Markdown options. Amendments run
// in registration order when the renderer is built.
func (c *Config) AmendMarkdown(fn func(*markdown.Options)) {
	if fn == nil {
		c.fail(errors.New("nil markdown amendment"))
		return
	}
	c.amendments = append(c.amendments, fn)
}

// AddPlugin applies p and waits for it. A plugin error is returned and also
// recorded so Err reports it.
func (c *Config) AddPlugin(ctx context.Context, p Plugin) error {
	if err := p.Apply(ctx, c); err != nil {
		c.fail(err)
		return err
	}
	c.plugins = append(c.plugins, p.Name())
	return nil
}

// InputDir returns the content root.
func (c *Config) InputDir() string { return c.inputDir }

// OutputDir returns the output directory.
func (c *Config) OutputDir() string { return c.outputDir }

// PassthroughPatterns returns the registered passthrough globs.
func (c *Config) PassthroughPatterns() []string { return slices.Clone(c.passthrough) }

// Funcs returns the filters and shortcodes as a template FuncMap.
func (c *Config) Funcs() template.FuncMap { return maps.Clone(c.funcs) }

// Collections returns the custom collections in registration order.
func (c *Config) Collections() []collection.Named { return slices.Clone(c.collections) }

// Computed returns the computed data registrations in order.
func (c *Config) Computed() []Computed { return slices.Clone(c.computed) }

// Plugins returns the names of applied plugins.
func (c *Config) Plugins() []string { return slices.Clone(c.plugins) }

// MarkdownOptions returns the default Markdown options with every amendment applied.
func (c *Config) MarkdownOptions() markdown.Options {
	opts := markdown.DefaultOptions()
	for _, amend := range c.amendments {
		amend(&opts)
	}
	return opts
}

// ResolveGlobals evaluates global data functions and returns the values.
func (c *Config) ResolveGlobals() (map[string]any, error) {
	out := make(map[string]any, len(c.globals))
	for name, value := range c.globals {
		v := reflect.ValueOf(value)
		if !v.IsValid() || v.Kind() != reflect.Func {
			out[name] = value
			continue
		}
		results := v.Call(nil)
		if len(results) == 2 && !results[1].IsNil() {
			err, _ := results[1].Interface().(error)
			return nil, ferrors.BuildError("global data failed").
				WithContext("global", name).
				WithCause(err).
				Build()
		}
		out[name] = results[0].Interface()
	}
	return out, nil
}
