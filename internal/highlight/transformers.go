package highlight

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// Transformer rewrites a block before and after tokenization. Transformers run
// in the order they were configured and keep no per-block state.
type Transformer interface {
	Name() string
	Preprocess(b *Block)
	Postprocess(b *Block)
}

// Transformer names accepted in configuration.
const (
	TransformerNotationDiff      = "notation-diff"
	TransformerNotationHighlight = "notation-highlight"
	TransformerIndentGuides      = "indent-guides"
)

var transformerNames = normalization.NewNormalizer("highlight transformer", map[string]string{
	TransformerNotationDiff:      TransformerNotationDiff,
	"diff":                       TransformerNotationDiff,
	TransformerNotationHighlight: TransformerNotationHighlight,
	"highlight":                  TransformerNotationHighlight,
	TransformerIndentGuides:      TransformerIndentGuides,
	"render-indent-guides":       TransformerIndentGuides,
}, "")

func newTransformer(name string, indentSize int) (Transformer, error) {
	canonical, err := transformerNames.NormalizeWithError(name)
	if err != nil {
		return nil, err
	}
	switch canonical {
	case TransformerNotationDiff:
		return &notation{
			name:     TransformerNotationDiff,
			classes:  map[string]string{"++": "diff add", "--": "diff remove"},
			preClass: "has-diff",
		}, nil
	case TransformerNotationHighlight:
		return &notation{
			name:     TransformerNotationHighlight,
			classes:  map[string]string{"highlight": "highlighted", "hl": "highlighted"},
			preClass: "has-highlighted",
		}, nil
	case TransformerIndentGuides:
		return &indentGuides{size: indentSize}, nil
	}
	return nil, fmt.Errorf("unsupported transformer %q", name)
}

// notationMarker matches a trailing "[!code key]" or "[!code key:N]" together
// with the comment syntax wrapped around it.
var notationMarker = regexp.MustCompile(`\s*(?:(?://|#|--|;|%|/\*|<!--)\s*)?\[!code\s+(\+\+|--|[a-z]+)(?::(\d+))?\]\s*(?:\*/|-->)?\s*$`)

// notation turns "[!code ...]" comments into line classes and strips the marker.
type notation struct {
	name     string
	classes  map[string]string
	preClass string
}

func (n *notation) Name() string { return n.name }

func (n *notation) Preprocess(b *Block) {
	for i, line := range b.Lines {
		loc := notationMarker.FindStringSubmatchIndex(line.Source)
		if loc == nil {
			continue
		}
		key := line.Source[loc[2]:loc[3]]
		class, ok := n.classes[key]
		if !ok {
			continue
		}
		count := 1
		if loc[4] >= 0 {
			if c, err := strconv.Atoi(line.Source[loc[4]:loc[5]]); err == nil && c > 0 {
				count = c
			}
		}
		line.Source = line.Source[:loc[0]]
		for j := i; j < i+count && j < len(b.Lines); j++ {
			for _, c := range strings.Fields(class) {
				b.Lines[j].AddClass(c)
			}
		}
		b.AddPreClass(n.preClass)
	}
}

func (n *notation) Postprocess(*Block) {}

// indentGuides renders leading indentation as <span class="indent"> units.
type indentGuides struct {
	size int
}

func (g *indentGuides) Name() string { return TransformerIndentGuides }

func (g *indentGuides) Preprocess(*Block) {}

func (g *indentGuides) Postprocess(b *Block) {
	for _, line := range b.Lines {
		text := tokensText(line.Tokens)
		if strings.TrimSpace(text) == "" {
			continue
		}
		units, consumed := indentUnits(text, g.size)
		if len(units) == 0 {
			continue
		}
		line.Indent = units
		line.Tokens = trimTokenPrefix(line.Tokens, consumed)
	}
}

// indentUnits splits the leading whitespace of text into guide units: each tab
// is one unit, and each run of size spaces is one unit. Trailing spaces that do
// not fill a unit are left in the text.
func indentUnits(text string, size int) ([]string, int) {
	var units []string
	consumed := 0
	spaces := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\t':
			if spaces > 0 {
				return units, consumed
			}
			units = append(units, "\t")
			consumed = i + 1
		case ' ':
			spaces++
			if spaces == size {
				units = append(units, strings.Repeat(" ", size))
				consumed = i + 1
				spaces = 0
			}
		default:
			return units, consumed
		}
	}
	return units, consumed
}

func tokensText(tokens []chroma.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// trimTokenPrefix drops the first n bytes of text from tokens.
func trimTokenPrefix(tokens []chroma.Token, n int) []chroma.Token {
	out := make([]chroma.Token, 0, len(tokens))
	for _, t := range tokens {
		if n >= len(t.Value) {
			n -= len(t.Value)
			continue
		}
		t.Value = t.Value[n:]
		n = 0
		out = append(out, t)
	}
	return out
}
