package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var now = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

func TestInitThenBuild(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, RunInit(config.DefaultPath, false, true, now))

	assert.FileExists(t, config.DefaultPath)
	assert.FileExists(t, filepath.Join("src", "_includes", "base.html"))
	assert.FileExists(t, filepath.Join("src", "blog", "2024-01-15-hello-world.md"))

	root := &CLI{Config: config.DefaultPath}
	cmd := &BuildCmd{Output: "public", Report: "report.json"}
	require.NoError(t, cmd.run(context.Background(), &Global{}, root))

	index := readFile(t, filepath.Join("public", "index.html"))
	assert.Contains(t, index, "<title>Home | My Site</title>")
	assert.Contains(t, index, `<a href="/blog/hello-world/">Hello, world</a>`)
	assert.Contains(t, index, "sitebuilder")

	post := readFile(t, filepath.Join("public", "blog", "hello-world", "index.html"))
	assert.Contains(t, post, "<article>")
	assert.Contains(t, post, "Monday, January 15, 2024")
	assert.Contains(t, post, "highlighted")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, "report.json")), &report))
	// favicon.ico and publickey.asc are not part of the starter content.
	assert.Equal(t, "warning", report["outcome"])
	assert.EqualValues(t, 3, report["rendered_pages"])
}

func TestInit_RefusesOverwrite(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, RunInit(config.DefaultPath, false, false, now))
	assert.NoDirExists(t, "src")

	err := RunInit(config.DefaultPath, false, false, now)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	require.NoError(t, RunInit(config.DefaultPath, true, false, now))
}

func TestInit_KeepsExistingInput(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll("src", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("src", "index.md"), []byte("mine"), 0o644))

	require.NoError(t, RunInit(config.DefaultPath, false, true, now))
	assert.Equal(t, "mine", readFile(t, filepath.Join("src", "index.md")))
	assert.NoDirExists(t, filepath.Join("src", "_includes"))
}

func TestBuild_MissingExplicitConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	err := (&BuildCmd{}).run(context.Background(), &Global{}, &CLI{Config: "missing.yaml"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	assert.Equal(t, 3, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestBuild_OutputOverrideValidated(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, RunInit(config.DefaultPath, false, true, now))
	err := (&BuildCmd{Output: "src"}).run(context.Background(), &Global{}, &CLI{Config: config.DefaultPath})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestServe_AppliesFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, RunInit(config.DefaultPath, false, true, now))

	cfg := config.Default()
	cmd := &ServeCmd{Host: "127.0.0.1", Port: 9090, RebuildEvery: time.Hour}
	cmd.apply(cfg)
	assert.Equal(t, "127.0.0.1", cfg.Serve.Host)
	assert.Equal(t, 9090, cfg.Serve.Port)
	assert.Equal(t, time.Hour, cfg.Serve.RebuildInterval)

	srv, err := cmd.server(&Global{}, &CLI{Config: config.DefaultPath})
	require.NoError(t, err)
	assert.Nil(t, srv.Addr())

	_, err = (&ServeCmd{Port: 70000}).server(&Global{}, &CLI{Config: config.DefaultPath})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadConfig_AppliesLogging(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("site.yaml", []byte("logging:\n  level: warn\n  format: json\n"), 0o644))
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	g := &Global{}
	_, err := loadConfig(g, &CLI{Config: "site.yaml"})
	require.NoError(t, err)
	assert.False(t, g.Logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, g.Logger.Enabled(context.Background(), slog.LevelWarn))

	_, err = loadConfig(g, &CLI{Config: "site.yaml", Verbose: true})
	require.NoError(t, err)
	assert.True(t, g.Logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, slog.LevelInfo, config.LogFormatJSON).Info("hello", slog.String("k", "v"))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])
}
