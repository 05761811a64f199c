package post

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// DefaultTag marks pages that receive computed post metadata.
const DefaultTag = "post"

// Deriver applies computed post metadata. BuildTime is the instant captured
// for the current build.
type Deriver struct {
	BuildTime time.Time
}

// Apply sets the page date from its file slug and its modified time from the
// source file. Computed values replace any frontmatter values.
func (d Deriver) Apply(page *content.Page) error {
	meta, err := Derive(page.FileSlug, page.InputPath, d.BuildTime)
	if err != nil {
		return err
	}
	page.Date = meta.Date
	page.Modified = meta.Modified
	if page.Data == nil {
		page.Data = map[string]any{}
	}
	page.Data["date"] = meta.Date
	page.Data["modified"] = meta.Modified
	return nil
}
