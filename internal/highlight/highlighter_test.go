package highlight

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func newTestHighlighter(t *testing.T, opts Options) *Highlighter {
	t.Helper()
	h, err := New(context.Background(), opts)
	require.NoError(t, err)
	return h
}

func TestNew_Defaults(t *testing.T) {
	h := newTestHighlighter(t, Options{})
	assert.Equal(t, DefaultTheme, h.Theme())
	assert.Equal(t, DefaultTransformers, h.Transformers())
	assert.True(t, h.Supports("go"))
	assert.True(t, h.Supports("golang"), "aliases are registered")
	assert.True(t, h.Supports("JS"))
}

func TestNew_InitializationFailures(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown theme", Options{Theme: "no-such-theme"}},
		{"unknown language", Options{Languages: []string{"klingon-script"}}},
		{"unknown transformer", Options{Transformers: []string{"sparkles"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Nil(t, h)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHighlight))
			assert.Equal(t, ferrors.SeverityFatal, ferrors.GetSeverity(err))
		})
	}
}

func TestNew_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(ctx, Options{Languages: []string{"go"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHighlight))
}

func TestHighlight_Structure(t *testing.T) {
	h := newTestHighlighter(t, Options{Languages: []string{"go"}, Transformers: []string{}})
	out, err := h.Highlight("package main\n\nfunc main() {}\n", "go")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<pre class="chroma github-dark" style="background-color:`), out)
	assert.Contains(t, out, `tabindex="0"><code class="language-go">`)
	assert.True(t, strings.HasSuffix(out, `</code></pre>`))
	assert.Equal(t, 3, strings.Count(out, `<span class="line">`))
	assert.Contains(t, out, "package")
	assert.Contains(t, out, "main")
}

func TestHighlight_EscapesHTML(t *testing.T) {
	h := newTestHighlighter(t, Options{Languages: []string{"go"}})
	out, err := h.Highlight(`<script>alert("x")</script>`, "")
	require.NoError(t, err)
	assert.Contains(t, out, `<code class="language-text">`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestHighlight_UnloadedLanguage(t *testing.T) {
	t.Run("plain text when lenient", func(t *testing.T) {
		h := newTestHighlighter(t, Options{Languages: []string{"go"}})
		out, err := h.Highlight("fn main() {}", "rust")
		require.NoError(t, err)
		assert.Contains(t, out, `<code class="language-rust">`)
		assert.Contains(t, out, "fn main() {}")
	})

	t.Run("error when strict", func(t *testing.T) {
		h := newTestHighlighter(t, Options{Languages: []string{"go"}, StrictLanguages: true})
		_, err := h.Highlight("fn main() {}", "rust")
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHighlight))
	})
}

func TestHighlight_NotationDiff(t *testing.T) {
	h := newTestHighlighter(t, Options{Languages: []string{"go"}, Transformers: []string{TransformerNotationDiff}})
	code := "a := 1 // [!code ++]\nb := 2 // [!code --]\nc := 3\n"
	out, err := h.Highlight(code, "go")
	require.NoError(t, err)

	assert.Contains(t, out, `<pre class="chroma github-dark has-diff"`)
	assert.Contains(t, out, `<span class="line diff add">`)
	assert.Contains(t, out, `<span class="line diff remove">`)
	assert.Equal(t, 1, strings.Count(out, `<span class="line">`))
	assert.NotContains(t, out, "[!code")
	assert.NotContains(t, out, "//")
}

func TestHighlight_NotationHighlightRange(t *testing.T) {
	h := newTestHighlighter(t, Options{Languages: []string{"python"}, Transformers: []string{"highlight"}})
	code := "x = 1 # [!code hl:2]\ny = 2\nz = 3"
	out, err := h.Highlight(code, "python")
	require.NoError(t, err)

	assert.Contains(t, out, "has-highlighted")
	assert.Equal(t, 2, strings.Count(out, `<span class="line highlighted">`))
	assert.Equal(t, 1, strings.Count(out, `<span class="line">`))
	assert.NotContains(t, out, "[!code")
}

func TestHighlight_IgnoresMarkersForOtherTransformers(t *testing.T) {
	h := newTestHighlighter(t, Options{Languages: []string{"go"}, Transformers: []string{TransformerNotationHighlight}})
	out, err := h.Highlight("a := 1 // [!code ++]", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "[!code ++]")
	assert.NotContains(t, out, "has-diff")
}

func TestHighlight_IndentGuides(t *testing.T) {
	h := newTestHighlighter(t, Options{
		Languages:    []string{"go"},
		Transformers: []string{TransformerIndentGuides},
		IndentSize:   2,
	})
	out, err := h.Highlight("func f() {\n    return\n}", "go")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, `<span class="indent">  </span>`))
}

func TestHighlight_TransformersKeepNoState(t *testing.T) {
	h := newTestHighlighter(t, Options{Languages: []string{"go"}})
	first, err := h.Highlight("a := 1 // [!code ++]", "go")
	require.NoError(t, err)
	assert.Contains(t, first, "has-diff")

	second, err := h.Highlight("a := 1", "go")
	require.NoError(t, err)
	assert.NotContains(t, second, "has-diff")
	assert.NotContains(t, second, "diff add")
}

func TestIndentUnits(t *testing.T) {
	tests := []struct {
		text     string
		size     int
		units    int
		consumed int
	}{
		{"\t\tx", 2, 2, 2},
		{"   x", 2, 1, 2},
		{"    x", 4, 1, 4},
		{"x", 2, 0, 0},
		{"  \tx", 2, 2, 3},
		{" \tx", 2, 0, 0},
	}
	for _, tt := range tests {
		units, consumed := indentUnits(tt.text, tt.size)
		assert.Len(t, units, tt.units, "%q", tt.text)
		assert.Equal(t, tt.consumed, consumed, "%q", tt.text)
	}
}

func TestTrimTokenPrefix(t *testing.T) {
	tokens := []chroma.Token{
		{Type: chroma.Text, Value: "  "},
		{Type: chroma.Text, Value: "  x"},
		{Type: chroma.Keyword, Value: "return"},
	}
	got := trimTokenPrefix(tokens, 4)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0].Value)
	assert.Equal(t, "return", got[1].Value)
}
