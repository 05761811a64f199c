// Package passthrough copies static files from the input directory to the
// output directory without transforming them.
package passthrough

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/otiai10/copy"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Matcher holds passthrough patterns relative to the input directory.
type Matcher struct {
	patterns []string
}

// NewMatcher validates patterns. Patterns may be written relative to the
// project root ("src/assets/**/*") or to the input directory ("assets/**/*");
// the input directory prefix is removed so output paths mirror the input tree.
func NewMatcher(inputDir string, patterns []string) (*Matcher, error) {
	prefix := path.Clean(filepath.ToSlash(inputDir)) + "/"
	m := &Matcher{patterns: make([]string, 0, len(patterns))}
	for _, raw := range patterns {
		p := strings.TrimPrefix(path.Clean(filepath.ToSlash(strings.TrimSpace(raw))), "./")
		p = strings.TrimPrefix(p, prefix)
		if p == "" || p == "." || strings.HasPrefix(p, "../") || path.IsAbs(p) {
			return nil, ferrors.ConfigError("passthrough pattern must be inside the input directory").
				WithContext("pattern", raw).
				Build()
		}
		if !doublestar.ValidatePattern(p) {
			return nil, ferrors.ConfigError("invalid passthrough pattern").
				WithContext("pattern", raw).
				Build()
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// Patterns returns the normalized patterns.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether rel, a slash-separated path relative to the input
// directory, is copied through. A literal pattern naming a directory matches
// everything below it.
func (m *Matcher) Match(rel string) bool {
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if !hasMeta(p) && strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{\\")
}

// Result summarizes a copy run.
type Result struct {
	Files   int
	Bytes   int64
	Missing []string
}

// Copy copies every file matched by m from inputDir to outputDir, keeping
// paths relative to inputDir. Literal patterns that do not exist are reported
// in Result.Missing and logged as warnings.
func Copy(ctx context.Context, inputDir, outputDir string, m *Matcher) (Result, error) {
	var res Result
	fsys := os.DirFS(inputDir)
	for _, p := range m.patterns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if hasMeta(p) {
			matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
			if err != nil {
				return res, ferrors.FileSystemError("expand passthrough pattern").
					WithContext("pattern", p).
					WithCause(err).
					Build()
			}
			for _, rel := range matches {
				if err := copyPath(inputDir, outputDir, rel, &res); err != nil {
					return res, err
				}
			}
			slog.Debug("Passthrough pattern copied", slog.String("pattern", p), logfields.Count(len(matches)))
			continue
		}

		if _, err := fs.Stat(fsys, p); err != nil {
			slog.Warn("Passthrough source not found", logfields.Path(p), logfields.Error(err))
			res.Missing = append(res.Missing, p)
			continue
		}
		if err := copyPath(inputDir, outputDir, p, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func copyPath(inputDir, outputDir, rel string, res *Result) error {
	src := filepath.Join(inputDir, filepath.FromSlash(rel))
	dst := filepath.Join(outputDir, filepath.FromSlash(rel))
	info, err := os.Stat(src)
	if err != nil {
		return ferrors.FileSystemError("passthrough source unreadable").
			WithContext("path", rel).
			WithCause(err).
			Build()
	}
	if !info.IsDir() {
		res.Files++
		res.Bytes += info.Size()
	}
	opts := copy.Options{
		PreserveTimes: true,
		// Skip sees the entries below a copied directory.
		Skip: func(fi os.FileInfo, p, _ string) (bool, error) {
			if p != src && !fi.IsDir() {
				res.Files++
				res.Bytes += fi.Size()
			}
			return false, nil
		},
	}
	if err := copy.Copy(src, dst, opts); err != nil {
		return ferrors.FileSystemError("passthrough copy failed").
			WithContext("path", rel).
			WithCause(err).
			Build()
	}
	return nil
}
