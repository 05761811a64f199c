// Package content discovers page sources under the input directory and
// resolves their data cascade, URLs and output paths.
package content

import (
	"html/template"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format is the source format of a page.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

var formatsByExt = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
	".htm":      FormatHTML,
}

// FormatFor returns the page format for a file name.
func FormatFor(name string) (Format, bool) {
	f, ok := formatsByExt[strings.ToLower(path.Ext(name))]
	return f, ok
}

// Page is one content source and everything derived for it during a build.
type Page struct {
	// InputPath is the OS path of the source file.
	InputPath string
	// RelPath is the slash-separated path relative to the input directory.
	RelPath string
	// FileSlug is the file name without extension.
	FileSlug string
	// URL is the public path, empty when the page is not written.
	URL string
	// OutputPath is the slash-separated path under the output directory.
	OutputPath string

	Layout   string
	Tags     []string
	Title    string
	Date     time.Time
	Modified time.Time

	// Data is the merged directory data and frontmatter of the page.
	Data   map[string]any
	Body   []byte
	Format Format

	// Content is the rendered body before layouts are applied.
	Content template.HTML
	// Excerpt is the text of the first rendered paragraph.
	Excerpt     string
	Fingerprint string
}

// HasTag reports whether the page carries tag.
func (p *Page) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// Published reports whether the page produces an output file.
func (p *Page) Published() bool {
	return p.OutputPath != ""
}

// Get returns a data field, used by templates and collection callbacks.
func (p *Page) Get(key string) any {
	return p.Data[key]
}

var titleCaser = cases.Title(language.English)

// fallbackTitle builds a title from a file slug: date prefix removed, dashes
// and underscores turned into spaces, words title-cased.
func fallbackTitle(slug string) string {
	slug = stripDatePrefix(slug)
	if slug == "index" {
		return ""
	}
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	return titleCaser.String(strings.Join(words, " "))
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[-_]?`)

// stripDatePrefix removes a leading YYYY-MM-DD token from a file slug unless
// nothing would remain.
func stripDatePrefix(slug string) string {
	if trimmed := datePrefix.ReplaceAllString(slug, ""); trimmed != "" {
		return trimmed
	}
	return slug
}
