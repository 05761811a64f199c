package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/collection"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/markdown"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/passthrough"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName identifies a stage in reports, logs and metrics.
type StageName string

const (
	StagePrepareOutput StageName = "prepare_output"
	StageLoadData      StageName = "load_data"
	StageDiscover      StageName = "discover"
	StageComputedData  StageName = "computed_data"
	StageCollections   StageName = "collections"
	StageRender        StageName = "render"
	StageLayouts       StageName = "layouts"
	StageWrite         StageName = "write"
	StagePassthrough   StageName = "passthrough"
)

// StageDef pairs a stage name with its implementation.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// DefaultStages is the build pipeline in execution order.
func DefaultStages() []StageDef {
	return []StageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageLoadData, stageLoadData},
		{StageDiscover, stageDiscover},
		{StageComputedData, stageComputedData},
		{StageCollections, stageCollections},
		{StageRender, stageRender},
		{StageLayouts, stageLayouts},
		{StageWrite, stageWrite},
		{StagePassthrough, stagePassthrough},
	}
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Generator   *Generator
	Report      *BuildReport
	Globals     map[string]any
	Pages       []*content.Page
	Collections collection.Set
	Matcher     *passthrough.Matcher
	Markdown    *markdown.Renderer
	Layouts     *layoutSet

	// output holds the final HTML of each published page once layouts are applied.
	output map[*content.Page][]byte
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator: g,
		Report:    report,
		output:    map[*content.Page][]byte{},
	}
}

// runStages executes stages in order, recording timing and stopping on first fatal error.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	recorder := bs.Generator.recorder
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.Name, err)
			bs.Report.recordStage(st.Name, se, recorder)
			return se
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		recorder.ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			bs.Report.recordStage(st.Name, nil, recorder)
			slog.Debug("Stage complete",
				logfields.BuildID(bs.Report.BuildID),
				logfields.Stage(string(st.Name)),
				logfields.DurationMS(float64(dur.Microseconds())/1000))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				se = newCanceledStageError(st.Name, err)
			} else {
				se = newFatalStageError(st.Name, err)
			}
		}
		bs.Report.recordStage(st.Name, se, recorder)
		if se.Kind == StageErrorWarning {
			slog.Warn("Stage completed with warning",
				logfields.BuildID(bs.Report.BuildID),
				logfields.Stage(string(st.Name)),
				logfields.Error(se.Err))
			continue
		}
		return se
	}
	return nil
}

func resultLabel(se *StageError) metrics.ResultLabel {
	if se == nil {
		return metrics.ResultSuccess
	}
	switch se.Kind {
	case StageErrorWarning:
		return metrics.ResultWarning
	case StageErrorCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}
