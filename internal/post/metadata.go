// Package post derives blog post metadata that is not written in frontmatter:
// the publication date from the file name and the modification time from the
// filesystem.
package post

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"time"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const slugDateLayout = "2006-01-02"

var slugDatePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// SlugDate returns the leading YYYY-MM-DD token of slug, if any.
func SlugDate(slug string) (string, bool) {
	m := slugDatePattern.FindStringSubmatch(slug)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DateFromSlug parses a leading YYYY-MM-DD token as a calendar date at
// midnight UTC. Slugs without the token fall back to buildTime. A token that
// is not a real calendar date is a validation error.
func DateFromSlug(slug string, buildTime time.Time) (time.Time, error) {
	token, ok := SlugDate(slug)
	if !ok {
		return buildTime, nil
	}
	d, err := time.ParseInLocation(slugDateLayout, token, time.UTC)
	if err != nil {
		return time.Time{}, ferrors.ValidationError("invalid date prefix in post file name").
			WithContext("slug", slug).
			WithCause(err).
			Build()
	}
	return d, nil
}

// ModifiedTime returns the last-modified time of the post source. A missing
// file is fatal for the build.
func ModifiedTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		msg := "stat post source"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "post source file is missing"
		}
		return time.Time{}, ferrors.FileSystemError(msg).
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return info.ModTime(), nil
}

// Metadata holds the derived fields of one post.
type Metadata struct {
	Date     time.Time
	Modified time.Time
}

// Derive computes both fields for a post.
func Derive(slug, inputPath string, buildTime time.Time) (Metadata, error) {
	date, err := DateFromSlug(slug, buildTime)
	if err != nil {
		return Metadata{}, err
	}
	mod, err := ModifiedTime(inputPath)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{Date: date, Modified: mod}, nil
}
