package build

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"

	"git.home.luguber.info/inful/sitebuilder/internal/collection"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// IncludesDir holds layouts and partials, relative to the input directory.
const IncludesDir = "_includes"

// TemplateEngineKey is the data key that disables template evaluation of a
// page body when set to false.
const TemplateEngineKey = "templateEngine"

// htmlFuncs layers site filters and shortcodes over the sprig function set.
func htmlFuncs(site htmltemplate.FuncMap) htmltemplate.FuncMap {
	funcs := htmltemplate.FuncMap(sprig.HtmlFuncMap())
	funcs["safe"] = func(s string) htmltemplate.HTML { return htmltemplate.HTML(s) } //nolint:gosec // opt-in raw output
	maps.Copy(funcs, site)
	return funcs
}

func textFuncs(site htmltemplate.FuncMap) texttemplate.FuncMap {
	funcs := sprig.TxtFuncMap()
	maps.Copy(funcs, site)
	return funcs
}

type layoutMeta struct {
	parent string
	data   map[string]any
}

// layoutSet is every file under _includes parsed into one html/template tree,
// so layouts can include partials by their relative path.
type layoutSet struct {
	root *htmltemplate.Template
	meta map[string]layoutMeta
}

func loadLayouts(inputDir string, funcs htmltemplate.FuncMap) (*layoutSet, error) {
	ls := &layoutSet{
		root: htmltemplate.New("").Funcs(funcs),
		meta: map[string]layoutMeta{},
	}
	dir := filepath.Join(inputDir, IncludesDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ls, nil
	}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return ls.add(filepath.ToSlash(rel), p)
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to load layouts").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	return ls, nil
}

func (ls *layoutSet) add(name, osPath string) error {
	raw, err := os.ReadFile(osPath)
	if err != nil {
		return err
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return ferrors.ValidationError("invalid layout frontmatter").
			WithContext("layout", name).
			WithCause(err).
			Build()
	}
	meta := layoutMeta{data: doc.Data}
	if parent, ok := doc.Data["layout"].(string); ok {
		meta.parent = strings.TrimSpace(parent)
	}
	if _, err := ls.root.New(name).Parse(string(doc.Body)); err != nil {
		return ferrors.RenderError("failed to parse layout").
			WithContext("layout", name).
			WithCause(err).
			Build()
	}
	ls.meta[name] = meta
	return nil
}

// resolve maps a layout reference to a template name. "post" and "post.html"
// both name _includes/post.html.
func (ls *layoutSet) resolve(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean(strings.TrimSpace(name)), "/")
	name = strings.TrimPrefix(name, IncludesDir+"/")
	if _, ok := ls.meta[name]; ok {
		return name, true
	}
	if _, ok := ls.meta[name+".html"]; ok {
		return name + ".html", true
	}
	return "", false
}

// Names returns the parsed template names.
func (ls *layoutSet) Names() []string {
	return slices.Sorted(maps.Keys(ls.meta))
}

// apply wraps body in the page layout and every layout it chains to. Layout
// frontmatter fills keys the page data leaves unset.
func (ls *layoutSet) apply(layout string, data map[string]any, body htmltemplate.HTML) ([]byte, error) {
	seen := map[string]bool{}
	current := layout
	for current != "" {
		name, ok := ls.resolve(current)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, current)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrLayoutCycle, name)
		}
		seen[name] = true

		meta := ls.meta[name]
		for k, v := range meta.data {
			if k == "layout" {
				continue
			}
			if _, exists := data[k]; !exists {
				data[k] = v
			}
		}
		data["content"] = body
		data["layout"] = name

		var buf bytes.Buffer
		if err := ls.root.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, fmt.Errorf("execute layout %s: %w", name, err)
		}
		body = htmltemplate.HTML(buf.String()) //nolint:gosec // layout output is already escaped
		current = meta.parent
	}
	return []byte(body), nil
}

// renderHTMLBody evaluates an HTML page body with access to every partial.
// Clones are taken before any layout executes, which html/template requires.
func (ls *layoutSet) renderHTMLBody(name string, body []byte, data map[string]any) (string, error) {
	t, err := ls.root.Clone()
	if err != nil {
		return "", err
	}
	t, err = t.New(name).Parse(string(body))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderTextBody(name string, body []byte, funcs texttemplate.FuncMap, data map[string]any) (string, error) {
	t, err := texttemplate.New(name).Funcs(funcs).Parse(string(body))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// templatesEnabled reports whether a page body is evaluated as a template.
func templatesEnabled(p *content.Page) bool {
	if v, ok := p.Data[TemplateEngineKey].(bool); ok {
		return v
	}
	return true
}

// pageData builds the template context of a page: global data, then page
// data, then the reserved keys page, collections and content.
func pageData(globals map[string]any, collections collection.Set, p *content.Page) map[string]any {
	data := make(map[string]any, len(globals)+len(p.Data)+4)
	maps.Copy(data, globals)
	maps.Copy(data, p.Data)
	data["title"] = p.Title
	data["page"] = p
	data["collections"] = collections
	data["content"] = p.Content
	return data
}
