// Package markdown renders page bodies to HTML with goldmark.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/highlight"
)

// DefaultExtensions are enabled when no extension list is configured.
var DefaultExtensions = []string{"footnote", "table", "strikethrough"}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"footnotes":     extension.Footnote,
	"typographer":   extension.Typographer,
}

// Options controls the Markdown pipeline.
type Options struct {
	// Extensions are goldmark extensions enabled by name.
	Extensions []string
	// Extenders are added after the named extensions.
	Extenders []goldmark.Extender
	// UnsafeHTML passes raw HTML in Markdown through to the output.
	UnsafeHTML bool
	// Highlighter renders fenced code blocks. Nil leaves them to goldmark.
	Highlighter *highlight.Highlighter
}

// DefaultOptions returns the options used for site content.
func DefaultOptions() Options {
	return Options{
		Extensions: append([]string(nil), DefaultExtensions...),
		UnsafeHTML: true,
	}
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// New builds a Renderer. Unknown extension names are configuration errors.
func New(opts Options) (*Renderer, error) {
	exts, err := collectExtensions(opts.Extensions)
	if err != nil {
		return nil, err
	}
	exts = append(exts, opts.Extenders...)

	rendererOptions := []renderer.Option{}
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if opts.Highlighter != nil {
		rendererOptions = append(rendererOptions,
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{highlighter: opts.Highlighter}, 200)))
	}

	engine := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &Renderer{engine: engine}, nil
}

// Render converts source to HTML.
func (r *Renderer) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "markdown render failed").
			Fatal().
			Build()
	}
	return buf.String(), nil
}

func collectExtensions(names []string) ([]goldmark.Extender, error) {
	if names == nil {
		names = DefaultExtensions
	}
	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			return nil, ferrors.ConfigError("unknown markdown extension").
				WithContext("extension", name).
				Build()
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		extenders = append(extenders, ext)
	}
	return extenders, nil
}

// ExtensionNames lists the accepted extension names.
func ExtensionNames() []string {
	names := make([]string, 0, len(extensionRegistry))
	for name := range extensionRegistry {
		names = append(names, name)
	}
	return names
}
