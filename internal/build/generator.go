package build

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Generator builds a site from a configured site.Config.
type Generator struct {
	site      *site.Config
	recorder  metrics.Recorder
	clean     bool
	buildTime time.Time
	stages    []StageDef
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder. Nil keeps the no-op recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithClean removes the output directory before writing.
func WithClean(clean bool) Option {
	return func(g *Generator) { g.clean = clean }
}

// WithBuildTime stamps the report with the build instant the site was configured with.
func WithBuildTime(t time.Time) Option {
	return func(g *Generator) { g.buildTime = t }
}

// withStages replaces the pipeline; used by tests.
func withStages(stages []StageDef) Option {
	return func(g *Generator) { g.stages = stages }
}

// NewGenerator returns a Generator for cfg.
func NewGenerator(cfg *site.Config, opts ...Option) *Generator {
	g := &Generator{
		site:      cfg,
		recorder:  metrics.NoopRecorder{},
		clean:     true,
		buildTime: time.Now(),
		stages:    DefaultStages(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build runs every stage and returns the report. The error is the fatal or
// canceled StageError that stopped the build, nil otherwise; warnings are only
// in the report.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport(g.buildTime)
	if err := g.site.Err(); err != nil {
		se := newFatalStageError(StagePrepareOutput, err)
		report.recordStage(StagePrepareOutput, se, g.recorder)
		g.finish(report)
		return report, se
	}

	slog.Info("Build started",
		logfields.BuildID(report.BuildID),
		logfields.Path(g.site.InputDir()),
		logfields.Output(g.site.OutputDir()))

	bs := newBuildState(g, report)
	err := runStages(ctx, bs, g.stages)
	g.finish(report)

	attrs := []any{
		logfields.BuildID(report.BuildID),
		slog.String("outcome", string(report.Outcome)),
		slog.String("summary", report.Summary()),
	}
	if err != nil {
		slog.Error("Build failed", append(attrs, logfields.Error(err))...)
		return report, err
	}
	slog.Info("Build complete", attrs...)
	return report, nil
}

func (g *Generator) finish(r *BuildReport) {
	r.finish()
	g.recorder.ObserveBuildDuration(r.Duration())
	g.recorder.IncBuildOutcome(r.outcomeLabel())
	if r.Outcome == OutcomeSuccess || r.Outcome == OutcomeWarning {
		g.recorder.SetLastBuildTimestamp(r.End)
	}
}
