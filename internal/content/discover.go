package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/dateformat"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Options controls discovery.
type Options struct {
	InputDir string
	// Ignore reports whether a slash-separated path relative to InputDir is
	// handled elsewhere, such as a passthrough copy, and must not become a page.
	Ignore func(rel string) bool
}

// Discover walks the input directory and loads every page source in lexical
// path order. Directories starting with "_" or "." are skipped, as are files
// starting with "_" or ".".
func Discover(ctx context.Context, opts Options) ([]*Page, error) {
	root := opts.InputDir
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, ferrors.FileSystemError("input directory does not exist").
			WithContext("path", root).
			WithCause(err).
			Build()
	}

	dirData := newDirDataCache(root)
	var pages []*Page
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && skipName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if skipName(d.Name()) {
			return nil
		}
		format, ok := FormatFor(d.Name())
		if !ok {
			return nil
		}
		if opts.Ignore != nil && opts.Ignore(rel) {
			slog.Debug("Skipping passthrough path", logfields.Path(rel))
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		page, err := loadPage(p, rel, format, fi.ModTime(), dirData)
		if err != nil {
			return err
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ferrors.FileSystemError("walk input directory").
			WithContext("path", root).
			WithCause(err).
			Build()
	}
	return pages, nil
}

func skipName(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "node_modules"
}

func loadPage(osPath, rel string, format Format, modTime time.Time, dirData *dirDataCache) (*Page, error) {
	raw, err := os.ReadFile(osPath)
	if err != nil {
		return nil, ferrors.FileSystemError("read page source").
			WithContext("path", osPath).
			WithCause(err).
			Build()
	}
	fm, body, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, ferrors.ValidationError("invalid frontmatter").
			WithContext("path", rel).
			WithCause(err).
			Build()
	}
	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return nil, ferrors.ValidationError("invalid frontmatter").
			WithContext("path", rel).
			WithCause(err).
			Build()
	}

	layers, err := dirData.chain(path.Dir(rel))
	if err != nil {
		return nil, err
	}
	data, tags, err := mergeData(append(layers, fields)...)
	if err != nil {
		return nil, ferrors.ValidationError("invalid page data").
			WithContext("path", rel).
			WithCause(err).
			Build()
	}

	name := path.Base(rel)
	slug := strings.TrimSuffix(name, path.Ext(name))
	page := &Page{
		InputPath:   osPath,
		RelPath:     rel,
		FileSlug:    slug,
		Tags:        tags,
		Data:        data,
		Body:        body,
		Format:      format,
		Modified:    modTime,
		Date:        modTime,
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body)),
	}

	page.URL, page.OutputPath, err = resolveURL(rel, slug, data["permalink"])
	if err != nil {
		return nil, ferrors.ValidationError("invalid permalink").
			WithContext("path", rel).
			WithCause(err).
			Build()
	}

	if v, ok := data["date"]; ok {
		d, err := dateformat.ToTime(v)
		if err != nil {
			return nil, ferrors.ValidationError("invalid date").
				WithContext("path", rel).
				WithCause(err).
				Build()
		}
		page.Date = d
	}

	page.Layout, _ = data["layout"].(string)
	if title, ok := data["title"].(string); ok && strings.TrimSpace(title) != "" {
		page.Title = title
	} else {
		page.Title = fallbackTitle(slug)
	}
	data["title"] = page.Title
	return page, nil
}
