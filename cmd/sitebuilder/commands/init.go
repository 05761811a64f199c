package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force     bool `help:"Overwrite existing configuration file"`
	NoContent bool `name:"no-content" help:"Only write the configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force, !i.NoContent, time.Now())
}

// RunInit writes the configuration file and, when withContent is set and the
// input directory does not exist yet, a starter site dated now.
func RunInit(configPath string, force, withContent bool, now time.Time) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	if !withContent {
		return nil
	}
	input := config.DefaultInput
	if _, err := os.Stat(input); err == nil {
		fmt.Printf("%s exists; starter content skipped\n", input)
		return nil
	}
	n, err := scaffold(input, now)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d starter files in %s\n", n, input)
	return nil
}

type starterFile struct {
	path string
	data map[string]any // nil writes body without frontmatter
	body string
}

func starterFiles(now time.Time) []starterFile {
	return []starterFile{
		{
			path: filepath.Join(build.IncludesDir, "base.html"),
			body: `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{ .title }} | {{ .site.title }}</title>
  <link rel="icon" href="/favicon.ico">
</head>
<body>
  <main>{{ .content }}</main>
  <footer>&copy; {{ year }} {{ .site.title }}. Built {{ .buildDate }}.</footer>
</body>
</html>
`,
		},
		{
			path: filepath.Join(build.IncludesDir, "post.html"),
			data: map[string]any{"layout": "base.html"},
			body: `<article>
  <h1>{{ .title }}</h1>
  <time>{{ formatPostDate .page.Date }}</time>
  {{ .content }}
  <p><small>Updated {{ formatLocalDate .page.Modified }}</small></p>
</article>
`,
		},
		{
			path: "index.md",
			data: map[string]any{"layout": "base.html", "title": "Home"},
			body: `# Welcome

## Posts
{{ range .collections.post }}
- [{{ .Title }}]({{ .URL }})
{{- end }}

## Projects
{{ range .collections.projects }}
- <span class="{{ statusClass (.Get "status") }}">{{ .Get "status" }}</span> {{ .Title }}
{{- end }}
`,
		},
		{
			path: filepath.Join("blog", now.Format("2006-01-02")+"-hello-world.md"),
			data: map[string]any{"layout": "post.html", "title": "Hello, world", "tags": []string{config.DefaultPostsTag}},
			body: "The first post. Code is highlighted:\n\n```go\nfmt.Println(\"hello\") // [!code highlight]\n```\n",
		},
		{
			path: filepath.Join("projects", "sitebuilder.md"),
			data: map[string]any{
				"title":    "sitebuilder",
				"status":   "active",
				"priority": 1,
				"tags":     []string{config.DefaultProjectsTag},
			},
			body: "The generator behind this site.\n",
		},
	}
}

func scaffold(input string, now time.Time) (int, error) {
	files := starterFiles(now)
	for _, f := range files {
		content := []byte(f.body)
		if f.data != nil {
			composed, err := frontmatter.Compose(f.data, content)
			if err != nil {
				return 0, err
			}
			content = composed
		}
		p := filepath.Join(input, f.path)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return 0, scaffoldError(err, p)
		}
		if err := os.WriteFile(p, content, 0o644); err != nil {
			return 0, scaffoldError(err, p)
		}
	}
	return len(files), nil
}

func scaffoldError(err error, p string) error {
	return ferrors.FileSystemError("failed to write starter file").
		WithContext("path", p).
		WithCause(err).
		Build()
}
