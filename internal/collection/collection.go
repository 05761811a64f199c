// Package collection groups pages into the tag index and named collections
// that templates iterate over.
package collection

import (
	"cmp"
	"log/slog"
	"slices"
	"sort"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// AllName is the collection holding every page.
const AllName = "all"

// Func builds a custom collection from the tag index.
type Func func(idx *Index) ([]*content.Page, error)

// Named pairs a collection name with its builder.
type Named struct {
	Name string
	Fn   Func
}

// Index is the tag index of a build. Every list is ordered by date, then by
// input path.
type Index struct {
	all   []*content.Page
	byTag map[string][]*content.Page
}

// NewIndex builds the tag index over pages.
func NewIndex(pages []*content.Page) *Index {
	all := slices.Clone(pages)
	slices.SortStableFunc(all, comparePages)

	byTag := map[string][]*content.Page{}
	for _, p := range all {
		for _, tag := range p.Tags {
			if tag == AllName {
				continue
			}
			byTag[tag] = append(byTag[tag], p)
		}
	}
	return &Index{all: all, byTag: byTag}
}

func comparePages(a, b *content.Page) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.RelPath, b.RelPath)
}

// All returns every page.
func (i *Index) All() []*content.Page {
	return slices.Clone(i.all)
}

// ByTag returns the pages carrying tag. The returned slice is a copy.
func (i *Index) ByTag(tag string) []*content.Page {
	if tag == AllName {
		return i.All()
	}
	return slices.Clone(i.byTag[tag])
}

// Tags returns the tag names in sorted order.
func (i *Index) Tags() []string {
	tags := make([]string, 0, len(i.byTag))
	for t := range i.byTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Set is the resolved collections of a build, keyed by name.
type Set map[string][]*content.Page

// Resolve builds the tag index and evaluates custom collections in order.
// A custom collection replaces a tag collection of the same name.
func Resolve(pages []*content.Page, custom []Named) (Set, error) {
	idx := NewIndex(pages)
	set := Set{AllName: idx.All()}
	for _, tag := range idx.Tags() {
		set[tag] = idx.ByTag(tag)
	}

	for _, c := range custom {
		if _, exists := set[c.Name]; exists {
			slog.Debug("Custom collection replaces tag collection", logfields.Collection(c.Name))
		}
		items, err := c.Fn(idx)
		if err != nil {
			if ferrors.IsClassified(err) {
				return nil, err
			}
			return nil, ferrors.BuildError("collection failed").
				WithContext("collection", c.Name).
				WithCause(err).
				Build()
		}
		set[c.Name] = items
		slog.Debug("Collection resolved", logfields.Collection(c.Name), logfields.Count(len(items)))
	}
	return set, nil
}

// Names returns the collection names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
