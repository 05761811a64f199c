package highlight

import (
	"slices"

	"github.com/alecthomas/chroma/v2"
)

// Line is one source line of a code block as it moves through the transformer chain.
type Line struct {
	// Source is the raw text before tokenization. Preprocess steps may edit it.
	Source string
	// Classes are added to the line's <span class="line">.
	Classes []string
	// Tokens are filled after tokenization and may be rewritten by Postprocess steps.
	Tokens []chroma.Token
	// Indent holds leading indentation units rendered as guide spans.
	Indent []string
}

// AddClass appends class once.
func (l *Line) AddClass(class string) {
	if !slices.Contains(l.Classes, class) {
		l.Classes = append(l.Classes, class)
	}
}

// Block is a code block being highlighted.
type Block struct {
	Lang       string
	Lines      []*Line
	PreClasses []string
}

// AddPreClass appends class to the <pre> element once.
func (b *Block) AddPreClass(class string) {
	if !slices.Contains(b.PreClasses, class) {
		b.PreClasses = append(b.PreClasses, class)
	}
}
