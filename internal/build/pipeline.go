package build

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"git.home.luguber.info/inful/sitebuilder/internal/collection"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/passthrough"
)

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	in, out := g.site.InputDir(), g.site.OutputDir()
	if err := checkOutputDir(in, out, g.clean); err != nil {
		return err
	}

	if g.clean {
		if err := os.RemoveAll(out); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to clean output directory").
				Fatal().
				WithContext("path", out).
				Build()
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create output directory").
			Fatal().
			WithContext("path", out).
			Build()
	}

	m, err := passthrough.NewMatcher(in, g.site.PassthroughPatterns())
	if err != nil {
		return err
	}
	bs.Matcher = m

	md, err := markdown.New(g.site.MarkdownOptions())
	if err != nil {
		return err
	}
	bs.Markdown = md
	return nil
}

// checkOutputDir refuses an output directory equal to the input directory,
// or one that contains it when the output is cleaned first.
func checkOutputDir(in, out string, clean bool) error {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	unsafe := absIn == absOut
	if clean {
		if rel, err := filepath.Rel(absOut, absIn); err == nil && !strings.HasPrefix(rel, "..") {
			unsafe = true
		}
	}
	if unsafe {
		return ferrors.ConfigError("unsafe output directory").
			WithContext("input", in).
			WithContext("output", out).
			WithCause(ErrUnsafeOutputDir).
			Build()
	}
	return nil
}

func stageLoadData(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	files, err := content.LoadGlobalData(g.site.InputDir())
	if err != nil {
		return err
	}
	registered, err := g.site.ResolveGlobals()
	if err != nil {
		return err
	}
	globals := make(map[string]any, len(files)+len(registered))
	maps.Copy(globals, files)
	for k, v := range registered {
		if _, clash := files[k]; clash {
			slog.Warn("Registered global data replaces data file",
				logfields.BuildID(bs.Report.BuildID),
				slog.String("key", k))
		}
		globals[k] = v
	}
	bs.Globals = globals

	layouts, err := loadLayouts(g.site.InputDir(), htmlFuncs(g.site.Funcs()))
	if err != nil {
		return err
	}
	bs.Layouts = layouts
	slog.Debug("Loaded data and layouts",
		logfields.BuildID(bs.Report.BuildID),
		slog.Int("globals", len(globals)),
		slog.Int("layouts", len(layouts.meta)))
	return nil
}

func stageDiscover(ctx context.Context, bs *BuildState) error {
	pages, err := content.Discover(ctx, content.Options{
		InputDir: bs.Generator.site.InputDir(),
		Ignore:   bs.Matcher.Match,
	})
	if err != nil {
		return err
	}
	bs.Pages = pages
	bs.Report.DiscoveredPages = len(pages)
	if len(pages) == 0 {
		return newWarnStageError(StageDiscover, fmt.Errorf("%w in %s", ErrNoPages, bs.Generator.site.InputDir()))
	}
	return nil
}

func stageComputedData(ctx context.Context, bs *BuildState) error {
	for _, c := range bs.Generator.site.Computed() {
		for _, p := range bs.Pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !p.HasTag(c.Tag) {
				continue
			}
			if err := c.Fn(p); err != nil {
				if ferrors.IsClassified(err) {
					return err
				}
				return ferrors.BuildError("computed data failed").
					WithContext("tag", c.Tag).
					WithContext("page", p.RelPath).
					WithCause(err).
					Build()
			}
		}
	}
	return nil
}

func stageCollections(_ context.Context, bs *BuildState) error {
	set, err := collection.Resolve(bs.Pages, bs.Generator.site.Collections())
	if err != nil {
		return err
	}
	bs.Collections = set
	for name, pages := range set {
		bs.Report.Collections[name] = len(pages)
	}
	return nil
}

// stageRender evaluates page bodies as templates and converts Markdown to
// HTML. A body sees the Content of pages rendered before it only; layouts see
// every page rendered.
func stageRender(ctx context.Context, bs *BuildState) error {
	funcs := bs.Generator.site.Funcs()
	txt := textFuncs(funcs)
	for _, p := range bs.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := renderPage(bs, p, txt); err != nil {
			return err
		}
	}
	return nil
}

func renderPage(bs *BuildState, p *content.Page, txt texttemplate.FuncMap) error {
	body := string(p.Body)
	var err error
	if templatesEnabled(p) {
		data := pageData(bs.Globals, bs.Collections, p)
		switch p.Format {
		case content.FormatHTML:
			body, err = bs.Layouts.renderHTMLBody(p.RelPath, p.Body, data)
		default:
			body, err = renderTextBody(p.RelPath, p.Body, txt, data)
		}
		if err != nil {
			return ferrors.RenderError("failed to render page template").
				WithContext("page", p.RelPath).
				WithCause(err).
				Build()
		}
	}
	if p.Format == content.FormatMarkdown {
		body, err = bs.Markdown.Render([]byte(body))
		if err != nil {
			if ce, ok := ferrors.AsClassified(err); ok {
				return ce.WithContext("page", p.RelPath)
			}
			return err
		}
	}
	p.Content = template.HTML(body) //nolint:gosec // page sources are trusted site content
	p.Excerpt = markdown.Excerpt(body)
	return nil
}

func stageLayouts(ctx context.Context, bs *BuildState) error {
	for _, p := range bs.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.Published() {
			continue
		}
		if p.Layout == "" {
			bs.output[p] = []byte(p.Content)
			continue
		}
		out, err := bs.Layouts.apply(p.Layout, pageData(bs.Globals, bs.Collections, p), p.Content)
		if err != nil {
			return ferrors.RenderError("failed to apply layout").
				WithContext("page", p.RelPath).
				WithContext("layout", p.Layout).
				WithCause(err).
				Build()
		}
		bs.output[p] = out
	}
	return nil
}

func stageWrite(ctx context.Context, bs *BuildState) error {
	outDir := bs.Generator.site.OutputDir()
	owners := map[string]string{}
	for _, p := range bs.Pages {
		if !p.Published() {
			bs.Report.SkippedPages++
			continue
		}
		if prev, ok := owners[p.OutputPath]; ok {
			return ferrors.BuildError("output path collision").
				WithContext("output", p.OutputPath).
				WithContext("pages", prev+", "+p.RelPath).
				WithCause(ErrOutputCollision).
				Build()
		}
		owners[p.OutputPath] = p.RelPath
	}

	written := 0
	for _, p := range bs.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.Published() {
			continue
		}
		data := bs.output[p]
		dst := filepath.Join(outDir, filepath.FromSlash(p.OutputPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return writeError(err, dst)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return writeError(err, dst)
		}
		written++
		bs.Report.Pages = append(bs.Report.Pages, PageRecord{
			Input:       p.RelPath,
			URL:         p.URL,
			Output:      p.OutputPath,
			Layout:      p.Layout,
			Bytes:       len(data),
			Fingerprint: p.Fingerprint,
		})
		slog.Debug("Wrote page",
			logfields.BuildID(bs.Report.BuildID),
			logfields.File(p.RelPath),
			logfields.URL(p.URL))
	}
	bs.Report.RenderedPages = written
	bs.Generator.recorder.AddPagesRendered(written)
	return nil
}

func writeError(err error, dst string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write page").
		Fatal().
		WithContext("path", dst).
		Build()
}

func stagePassthrough(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	res, err := passthrough.Copy(ctx, g.site.InputDir(), g.site.OutputDir(), bs.Matcher)
	bs.Report.PassthroughFiles = res.Files
	bs.Report.PassthroughBytes = res.Bytes
	g.recorder.AddPassthroughFiles(res.Files, res.Bytes)
	if err != nil {
		return err
	}
	if len(res.Missing) > 0 {
		return newWarnStageError(StagePassthrough,
			fmt.Errorf("%w: %s", ErrMissingPassthrough, strings.Join(res.Missing, ", ")))
	}
	return nil
}
