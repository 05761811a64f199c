package content

import (
	"fmt"
	"path"
	"strings"
)

// resolveURL derives the URL and output path of a page. A permalink of false
// suppresses output; a string permalink replaces the default.
func resolveURL(relPath, fileSlug string, permalink any) (url, outputPath string, err error) {
	switch p := permalink.(type) {
	case nil:
		url = defaultURL(relPath, fileSlug)
	case bool:
		if p {
			return "", "", fmt.Errorf("permalink must be a path or false")
		}
		return "", "", nil
	case string:
		url = strings.TrimSpace(p)
		if url == "" {
			return "", "", fmt.Errorf("permalink is empty")
		}
		if !strings.HasPrefix(url, "/") {
			url = "/" + url
		}
		url = path.Clean(url) + trailingSlash(url)
	default:
		return "", "", fmt.Errorf("permalink must be a path or false, got %T", permalink)
	}
	return url, outputFor(url), nil
}

func trailingSlash(url string) string {
	if strings.HasSuffix(url, "/") && url != "/" {
		return "/"
	}
	return ""
}

// defaultURL maps src/blog/2023-05-01-my-post.md to /blog/my-post/ and
// src/about/index.md to /about/.
func defaultURL(relPath, fileSlug string) string {
	dir := path.Dir(relPath)
	if dir == "." {
		dir = ""
	}
	slug := stripDatePrefix(fileSlug)
	if slug == "index" {
		slug = ""
	}
	parts := []string{}
	for _, p := range []string{dir, slug} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/") + "/"
}

// outputFor maps a URL to a file under the output directory. Directory URLs
// get an index.html; URLs with an extension are written as is.
func outputFor(url string) string {
	rel := strings.TrimPrefix(url, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		return rel + "index.html"
	}
	if path.Ext(rel) != "" {
		return rel
	}
	return rel + "/index.html"
}
