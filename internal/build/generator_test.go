package build

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

var buildTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

// configuredSite builds the full site configuration over a temporary tree.
func configuredSite(t *testing.T) (s *site.Config, in, out string) {
	t.Helper()
	root := t.TempDir()
	in = filepath.Join(root, "src")
	out = filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(in, 0o755))

	cfg := config.Default()
	cfg.Input = in
	cfg.Output = out
	cfg.Passthrough = config.DefaultPassthrough(in)
	cfg.Highlight.Languages = []string{"go"}

	s, err := site.Configure(context.Background(), cfg, buildTime)
	require.NoError(t, err)
	return s, in, out
}

func plainSite(t *testing.T) (s *site.Config, in, out string) {
	t.Helper()
	root := t.TempDir()
	in = filepath.Join(root, "src")
	out = filepath.Join(root, "dist")
	require.NoError(t, os.MkdirAll(in, 0o755))
	s = site.New()
	s.SetInputDirectory(in)
	s.SetOutputDirectory(out)
	return s, in, out
}

func TestBuild_FullSite(t *testing.T) {
	s, in, out := configuredSite(t)

	writeFile(t, in, "_includes/base.html", `<html><head><title>{{ .title }}</title></head><body>{{ .content }}</body></html>`)
	writeFile(t, in, "_includes/post.html", "---\nlayout: base.html\n---\n<article>{{ .content }}</article>")
	writeFile(t, in, "blog/2023-05-01-my-post.md", "---\ntitle: Hello\ntags: [post]\nlayout: post\n---\nHi **there**, it is {{ year }}.\n")
	writeFile(t, in, "projects/alpha.md", "---\ntitle: Alpha\ntags: [projects]\nstatus: active\n---\nAlpha body\n")
	writeFile(t, in, "projects/beta.md", "---\ntitle: beta\ntags: [projects]\nstatus: archived\n---\nBeta body\n")
	writeFile(t, in, "index.html", "---\nlayout: base\ntitle: Home\n---\n<ul>{{ range .collections.projects }}<li>{{ .Title }}</li>{{ end }}</ul>")
	writeFile(t, in, "assets/images/logo.png", "\x89PNG\x00\x01")

	report, err := NewGenerator(s, WithBuildTime(buildTime)).Build(context.Background())
	require.NoError(t, err)

	// publickey.asc and favicon.ico are absent from the fixture.
	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], ErrMissingPassthrough)

	postHTML := readFile(t, out, "blog/my-post/index.html")
	assert.Contains(t, postHTML, "<title>Hello</title>")
	assert.Contains(t, postHTML, "<article><p>Hi <strong>there</strong>, it is 2024.</p>")

	index := readFile(t, out, "index.html")
	assert.Contains(t, index, "<title>Home</title>")
	assert.Contains(t, index, "<ul><li>Alpha</li><li>beta</li></ul>")

	assert.Equal(t, "\x89PNG\x00\x01", readFile(t, out, "assets/images/logo.png"))
	assert.NoFileExists(t, filepath.Join(out, "_includes", "base.html"))

	assert.Equal(t, 4, report.DiscoveredPages)
	assert.Equal(t, 4, report.RenderedPages)
	assert.Equal(t, 1, report.PassthroughFiles)
	assert.Equal(t, 2, report.Collections["projects"])
	assert.Equal(t, 1, report.Collections["post"])
	require.Len(t, report.Pages, 4)
	for _, st := range DefaultStages() {
		assert.Contains(t, report.StageCounts, st.Name)
	}
	assert.Equal(t, 1, report.StageCounts[StagePassthrough].Warning)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, buildTime, report.BuildTime)
}

func TestBuild_StatusMissingFails(t *testing.T) {
	s, in, _ := configuredSite(t)
	writeFile(t, in, "projects/alpha.md", "---\ntitle: Alpha\ntags: [projects]\n---\nbody\n")

	report, err := NewGenerator(s).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageCollections, se.Stage)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestBuild_LayoutErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  error
	}{
		{
			name: "missing",
			files: map[string]string{
				"index.md": "---\nlayout: nowhere\n---\nx",
			},
			want: ErrLayoutNotFound,
		},
		{
			name: "cycle",
			files: map[string]string{
				"_includes/a.html": "---\nlayout: b.html\n---\nA{{ .content }}",
				"_includes/b.html": "---\nlayout: a.html\n---\nB{{ .content }}",
				"index.md":         "---\nlayout: a\n---\nx",
			},
			want: ErrLayoutCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, in, _ := plainSite(t)
			for rel, body := range tt.files {
				writeFile(t, in, rel, body)
			}
			_, err := NewGenerator(s).Build(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
		})
	}
}

func TestBuild_OutputCollision(t *testing.T) {
	s, in, _ := plainSite(t)
	writeFile(t, in, "a.md", "---\npermalink: /same/\n---\na")
	writeFile(t, in, "b.md", "---\npermalink: /same/\n---\nb")

	_, err := NewGenerator(s).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutputCollision)
}

func TestBuild_PermalinkFalseAndRawBodies(t *testing.T) {
	s, in, out := plainSite(t)
	writeFile(t, in, "draft.md", "---\npermalink: false\n---\nhidden")
	writeFile(t, in, "raw.md", "---\ntemplateEngine: false\n---\nUse `{{ .Name }}` here.\n")
	writeFile(t, in, "feed.html", "---\npermalink: /feed.xml\n---\n{{ len .collections.all }}")

	report, err := NewGenerator(s).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 1, report.SkippedPages)
	assert.Equal(t, 2, report.RenderedPages)

	assert.Contains(t, readFile(t, out, "raw/index.html"), "<code>{{ .Name }}</code>")
	assert.Equal(t, "3", readFile(t, out, "feed.xml"))
	assert.NoDirExists(t, filepath.Join(out, "draft"))
}

func TestBuild_SprigFunctionsInPagesAndLayouts(t *testing.T) {
	s, in, out := plainSite(t)
	writeFile(t, in, "_includes/base.html", "<h1>{{ .title | upper }}</h1>{{ .content }}")
	writeFile(t, in, "page.html", "---\nlayout: base\ntitle: Notes\n---\n<p>{{ \"a-b\" | replace \"-\" \"_\" }}</p>")
	writeFile(t, in, "post.md", "---\nlayout: base\ntitle: post\n---\nStars: {{ \"*\" | repeat 3 | quote }}\n")

	report, err := NewGenerator(s).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, report.Outcome)

	page := readFile(t, out, "page/index.html")
	assert.Contains(t, page, "<h1>NOTES</h1>")
	assert.Contains(t, page, "<p>a_b</p>")
	post := readFile(t, out, "post/index.html")
	assert.Contains(t, post, "<h1>POST</h1>")
	assert.Contains(t, post, "Stars:")
}

func TestBuild_NoPagesWarns(t *testing.T) {
	s, _, _ := plainSite(t)
	report, err := NewGenerator(s).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	require.Len(t, report.Warnings, 1)
	assert.ErrorIs(t, report.Warnings[0], ErrNoPages)
}

func TestBuild_CleanRemovesStaleFiles(t *testing.T) {
	s, in, out := plainSite(t)
	writeFile(t, in, "index.md", "home")
	writeFile(t, out, "stale.html", "old")

	_, err := NewGenerator(s, WithClean(false)).Build(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "stale.html"))

	_, err = NewGenerator(s).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "stale.html"))
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestBuild_UnsafeOutputDir(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "src")
	writeFile(t, in, "index.md", "home")

	tests := []struct {
		name  string
		out   string
		clean bool
	}{
		{"same as input", in, false},
		{"parent of input when cleaning", root, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := site.New()
			s.SetInputDirectory(in)
			s.SetOutputDirectory(tt.out)
			_, err := NewGenerator(s, WithClean(tt.clean)).Build(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsafeOutputDir)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
			assert.FileExists(t, filepath.Join(in, "index.md"))
		})
	}
}

func TestBuild_Canceled(t *testing.T) {
	s, in, _ := plainSite(t)
	writeFile(t, in, "index.md", "home")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewGenerator(s).Build(ctx)
	require.Error(t, err)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, StagePrepareOutput, se.Stage)
}

func TestBuild_SiteConfigErrorFails(t *testing.T) {
	s, _, _ := plainSite(t)
	s.AddFilter("not-an-identifier", func(string) string { return "" })

	report, err := NewGenerator(s).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestRunStages_WarningContinuesFatalStops(t *testing.T) {
	s, _, _ := plainSite(t)
	var ran []StageName
	stage := func(name StageName, err error) StageDef {
		return StageDef{Name: name, Fn: func(context.Context, *BuildState) error {
			ran = append(ran, name)
			return err
		}}
	}
	g := NewGenerator(s, withStages([]StageDef{
		stage("one", newWarnStageError("one", errors.New("soft"))),
		stage("two", nil),
		stage("three", errors.New("hard")),
		stage("four", nil),
	}))

	report, err := g.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, []StageName{"one", "two", "three"}, ran)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Len(t, report.Warnings, 1)
	assert.Len(t, report.Errors, 1)
	assert.Equal(t, StageErrorWarning, report.StageErrorKinds["one"])
	assert.Equal(t, StageErrorFatal, report.StageErrorKinds["three"])
	assert.Equal(t, StageCount{Success: 1}, report.StageCounts["two"])
	assert.NotContains(t, report.StageCounts, StageName("four"))
}

type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	results  map[string]metrics.ResultLabel
	outcomes []metrics.BuildOutcomeLabel
	pages    int
}

func (r *recordingRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[stage] = res
}

func (r *recordingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) AddPagesRendered(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages += n
}

func TestBuild_RecordsMetrics(t *testing.T) {
	s, in, _ := plainSite(t)
	writeFile(t, in, "index.md", "home")
	writeFile(t, in, "about.md", "about")

	rec := &recordingRecorder{results: map[string]metrics.ResultLabel{}}
	_, err := NewGenerator(s, WithRecorder(rec)).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rec.pages)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, metrics.ResultSuccess, rec.results[string(StageWrite)])
	assert.Len(t, rec.results, len(DefaultStages()))
}

func TestReport_Persist(t *testing.T) {
	s, in, out := plainSite(t)
	writeFile(t, in, "index.md", "home")
	report, err := NewGenerator(s, WithBuildTime(buildTime)).Build(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reports", "build.json")
	require.NoError(t, report.Persist(path))
	assert.NoFileExists(t, path+".tmp")

	var got BuildReportSerializable
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Dir(path), "build.json")), &got))
	assert.Equal(t, report.BuildID, got.BuildID)
	assert.Equal(t, "success", got.Outcome)
	assert.Equal(t, 1, got.RenderedPages)
	require.Len(t, got.Pages, 1)
	assert.Equal(t, "/", got.Pages[0].URL)
	assert.Equal(t, "index.html", got.Pages[0].Output)
	assert.NotEmpty(t, got.Pages[0].Fingerprint)
	assert.Contains(t, got.StageCounts, string(StageRender))
	assert.FileExists(t, filepath.Join(out, "index.html"))

	assert.Contains(t, report.Summary(), "pages=1")
	assert.Contains(t, report.Summary(), "outcome=success")
}
