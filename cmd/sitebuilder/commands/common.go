// Package commands implements the sitebuilder subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site into the output directory"`
	Serve ServeCmd `cmd:"" help:"Build, serve and rebuild the site on change"`
	Init  InitCmd  `cmd:"" help:"Create a configuration file and starter content"`
}

// AfterApply runs after flag parsing; the config file may refine logging later.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, level, config.LogFormatText)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads the configuration file and applies its logging section.
// -v always wins over the configured level.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := config.NormalizeLogLevel(cfg.Logging.Level).SlogLevel()
	if root.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, level, config.NormalizeLogFormat(cfg.Logging.Format))
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// buildSite configures and builds the site once. Each call captures its own
// build instant. The report is persisted when cfg.Build.Report is set, even
// for failed builds.
func buildSite(ctx context.Context, cfg *config.Config, rec metrics.Recorder) (*build.BuildReport, error) {
	buildTime := time.Now()
	s, err := site.Configure(ctx, cfg, buildTime)
	if err != nil {
		return nil, err
	}
	gen := build.NewGenerator(s,
		build.WithRecorder(rec),
		build.WithClean(cfg.Build.CleansOutput()),
		build.WithBuildTime(buildTime),
	)
	report, err := gen.Build(ctx)
	if report != nil && cfg.Build.Report != "" {
		if perr := report.Persist(cfg.Build.Report); perr != nil {
			slog.Warn("Failed to write build report", logfields.Path(cfg.Build.Report), logfields.Error(perr))
		}
	}
	return report, err
}
