// Package highlight adapts the chroma syntax highlighter to fenced code blocks.
//
// A Highlighter is created once per build by New, which resolves the theme,
// preloads the configured languages and assembles the transformer chain.
// After New returns the Highlighter is read-only and safe for concurrent use.
package highlight

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultTheme      = "github-dark"
	DefaultIndentSize = 2
	plainLanguage     = "text"
)

// DefaultLanguages are preloaded when no language list is configured.
var DefaultLanguages = []string{
	"bash", "css", "diff", "go", "html", "javascript", "json", "markdown",
	"python", "shell", "sql", "typescript", "yaml",
}

// DefaultTransformers is the transformer chain used when none is configured.
var DefaultTransformers = []string{
	TransformerNotationDiff,
	TransformerNotationHighlight,
	TransformerIndentGuides,
}

// Options configures a Highlighter.
type Options struct {
	Theme        string
	Languages    []string
	Transformers []string
	IndentSize   int
	// StrictLanguages turns a block in a language that was not preloaded into
	// an error instead of a plain text rendering.
	StrictLanguages bool
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Theme) == "" {
		o.Theme = DefaultTheme
	}
	if o.Languages == nil {
		o.Languages = DefaultLanguages
	}
	if o.Transformers == nil {
		o.Transformers = DefaultTransformers
	}
	if o.IndentSize <= 0 {
		o.IndentSize = DefaultIndentSize
	}
	return o
}

// Highlighter renders code blocks to HTML with inline styles.
type Highlighter struct {
	theme        string
	style        *chroma.Style
	lexers       map[string]chroma.Lexer
	transformers []Transformer
	strict       bool
	css          map[chroma.TokenType]string
	preStyle     string
}

// New initializes a Highlighter. It fails with a CategoryHighlight error when
// the theme, a language, or a transformer cannot be resolved, or when ctx is
// canceled before initialization completes.
func New(ctx context.Context, opts Options) (*Highlighter, error) {
	opts = opts.withDefaults()

	themeName := strings.ToLower(strings.TrimSpace(opts.Theme))
	style, ok := styles.Registry[themeName]
	if !ok {
		return nil, ferrors.HighlightError("unknown highlight theme").
			WithContext("theme", opts.Theme).
			Build()
	}

	h := &Highlighter{
		theme:  themeName,
		style:  style,
		lexers: make(map[string]chroma.Lexer, len(opts.Languages)),
		strict: opts.StrictLanguages,
		css:    make(map[chroma.TokenType]string, len(chroma.StandardTypes)),
	}

	for _, name := range opts.Languages {
		if err := ctx.Err(); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryHighlight, "highlighter initialization canceled").
				Fatal().
				Build()
		}
		lexer := lexers.Get(name)
		if lexer == nil {
			return nil, ferrors.HighlightError("unknown highlight language").
				WithContext("language", name).
				Build()
		}
		h.register(name, chroma.Coalesce(lexer))
	}

	for _, name := range opts.Transformers {
		t, err := newTransformer(name, opts.IndentSize)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryHighlight, "unknown highlight transformer").
				Fatal().
				WithContext("transformer", name).
				Build()
		}
		h.transformers = append(h.transformers, t)
	}

	for tt := range chroma.StandardTypes {
		h.css[tt] = h.tokenStyle(tt)
	}
	h.preStyle = h.backgroundStyle()

	if err := ctx.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryHighlight, "highlighter initialization canceled").
			Fatal().
			Build()
	}

	slog.Debug("Highlighter initialized",
		logfields.Theme(h.theme),
		logfields.Count(len(opts.Languages)),
		slog.Int("transformers", len(h.transformers)))
	return h, nil
}

func (h *Highlighter) register(name string, lexer chroma.Lexer) {
	h.lexers[strings.ToLower(name)] = lexer
	cfg := lexer.Config()
	if cfg == nil {
		return
	}
	h.lexers[strings.ToLower(cfg.Name)] = lexer
	for _, alias := range cfg.Aliases {
		h.lexers[strings.ToLower(alias)] = lexer
	}
}

// Theme returns the resolved theme name.
func (h *Highlighter) Theme() string { return h.theme }

// Transformers returns the names of the configured transformers in order.
func (h *Highlighter) Transformers() []string {
	names := make([]string, 0, len(h.transformers))
	for _, t := range h.transformers {
		names = append(names, t.Name())
	}
	return names
}

// Supports reports whether lang was preloaded.
func (h *Highlighter) Supports(lang string) bool {
	_, ok := h.lexers[normalizeLang(lang)]
	return ok
}

// Highlight renders code in lang as a <pre> block.
func (h *Highlighter) Highlight(code, lang string) (string, error) {
	lang = normalizeLang(lang)
	lexer, err := h.lexerFor(lang)
	if err != nil {
		return "", err
	}
	if lang == "" {
		lang = plainLanguage
	}

	block := newBlock(code, lang)
	for _, t := range h.transformers {
		t.Preprocess(block)
	}

	sources := make([]string, len(block.Lines))
	for i, line := range block.Lines {
		sources[i] = line.Source
	}
	iter, err := lexer.Tokenise(nil, strings.Join(sources, "\n"))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryHighlight, "tokenize code block").
			Fatal().
			WithContext("language", lang).
			Build()
	}
	for i, tokens := range chroma.SplitTokensIntoLines(iter.Tokens()) {
		if i >= len(block.Lines) {
			break
		}
		block.Lines[i].Tokens = tokens
	}

	for _, t := range h.transformers {
		t.Postprocess(block)
	}
	return h.render(block), nil
}

func (h *Highlighter) lexerFor(lang string) (chroma.Lexer, error) {
	if lang == "" || lang == plainLanguage {
		return lexers.Fallback, nil
	}
	if lexer, ok := h.lexers[lang]; ok {
		return lexer, nil
	}
	if h.strict {
		return nil, ferrors.HighlightError("highlight language not loaded").
			WithContext("language", lang).
			Build()
	}
	slog.Debug("Language not loaded, rendering as plain text", logfields.Language(lang))
	return lexers.Fallback, nil
}

func normalizeLang(lang string) string {
	fields := strings.Fields(strings.ToLower(lang))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func newBlock(code, lang string) *Block {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	code = strings.TrimSuffix(code, "\n")
	raw := strings.Split(code, "\n")
	lines := make([]*Line, len(raw))
	for i, s := range raw {
		lines[i] = &Line{Source: s}
	}
	return &Block{Lang: lang, Lines: lines}
}

func (h *Highlighter) render(b *Block) string {
	var sb strings.Builder
	preClasses := append([]string{"chroma", h.theme}, b.PreClasses...)
	fmt.Fprintf(&sb, `<pre class="%s" style="%s" tabindex="0"><code class="language-%s">`,
		html.EscapeString(strings.Join(preClasses, " ")),
		h.preStyle,
		html.EscapeString(b.Lang))
	for i, line := range b.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		classes := append([]string{"line"}, line.Classes...)
		sb.WriteString(`<span class="`)
		sb.WriteString(html.EscapeString(strings.Join(classes, " ")))
		sb.WriteString(`">`)
		for _, unit := range line.Indent {
			sb.WriteString(`<span class="indent">`)
			sb.WriteString(html.EscapeString(unit))
			sb.WriteString(`</span>`)
		}
		for _, tok := range line.Tokens {
			value := strings.ReplaceAll(tok.Value, "\n", "")
			if value == "" {
				continue
			}
			css, ok := h.css[tok.Type]
			if !ok {
				css = h.tokenStyle(tok.Type)
			}
			if css == "" {
				sb.WriteString(html.EscapeString(value))
				continue
			}
			sb.WriteString(`<span style="`)
			sb.WriteString(css)
			sb.WriteString(`">`)
			sb.WriteString(html.EscapeString(value))
			sb.WriteString(`</span>`)
		}
		sb.WriteString(`</span>`)
	}
	sb.WriteString(`</code></pre>`)
	return sb.String()
}

func (h *Highlighter) backgroundStyle() string {
	bg := h.style.Get(chroma.Background)
	var parts []string
	if bg.Background.IsSet() {
		parts = append(parts, "background-color:"+bg.Background.String())
	}
	if bg.Colour.IsSet() {
		parts = append(parts, "color:"+bg.Colour.String())
	}
	return strings.Join(parts, ";")
}

// tokenStyle returns the inline CSS for a token type, omitting the colour when
// it matches the block's base text colour.
func (h *Highlighter) tokenStyle(tt chroma.TokenType) string {
	entry := h.style.Get(tt)
	base := h.style.Get(chroma.Background)
	var parts []string
	if entry.Colour.IsSet() && entry.Colour != base.Colour {
		parts = append(parts, "color:"+entry.Colour.String())
	}
	if entry.Bold == chroma.Yes {
		parts = append(parts, "font-weight:bold")
	}
	if entry.Italic == chroma.Yes {
		parts = append(parts, "font-style:italic")
	}
	if entry.Underline == chroma.Yes {
		parts = append(parts, "text-decoration:underline")
	}
	return strings.Join(parts, ";")
}
