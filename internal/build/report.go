package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

// BuildOutcome is the final state of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int `json:"success"`
	Warning  int `json:"warning"`
	Fatal    int `json:"fatal"`
	Canceled int `json:"canceled"`
}

// PageRecord is one written page in the report manifest.
type PageRecord struct {
	Input       string `json:"input"`
	URL         string `json:"url"`
	Output      string `json:"output"`
	Layout      string `json:"layout,omitempty"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// BuildReport captures what a build did and how it ended.
type BuildReport struct {
	SchemaVersion int
	BuildID       string
	BuildTime     time.Time
	Start         time.Time
	End           time.Time
	Errors        []error // fatal or canceled stage errors (at most one)
	Warnings      []error

	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount

	DiscoveredPages  int
	RenderedPages    int
	SkippedPages     int // permalink: false
	PassthroughFiles int
	PassthroughBytes int64
	Collections      map[string]int
	Pages            []PageRecord
	Outcome          BuildOutcome
}

func newBuildReport(buildTime time.Time) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		BuildTime:       buildTime,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
		Collections:     make(map[string]int),
	}
}

func (r *BuildReport) recordStage(name StageName, se *StageError, recorder metrics.Recorder) {
	sc := r.StageCounts[name]
	switch {
	case se == nil:
		sc.Success++
	case se.Kind == StageErrorWarning:
		sc.Warning++
		r.Warnings = append(r.Warnings, se)
		r.StageErrorKinds[name] = se.Kind
	case se.Kind == StageErrorCanceled:
		sc.Canceled++
		r.Errors = append(r.Errors, se)
		r.StageErrorKinds[name] = se.Kind
	default:
		sc.Fatal++
		r.Errors = append(r.Errors, se)
		r.StageErrorKinds[name] = se.Kind
	}
	r.StageCounts[name] = sc
	recorder.IncStageResult(string(name), resultLabel(se))
}

func (r *BuildReport) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

// Duration is the wall time of the build.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

func (r *BuildReport) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

func (r *BuildReport) outcomeLabel() metrics.BuildOutcomeLabel {
	switch r.Outcome {
	case OutcomeWarning:
		return metrics.BuildOutcomeWarning
	case OutcomeFailed:
		return metrics.BuildOutcomeFailed
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeSuccess
	}
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("pages=%d skipped=%d passthrough=%d (%s) duration=%s errors=%d warnings=%d outcome=%s",
		r.RenderedPages, r.SkippedPages, r.PassthroughFiles, humanize.Bytes(uint64(max(r.PassthroughBytes, 0))),
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// Persist writes the report as JSON to path, replacing any previous report atomically.
func (r *BuildReport) Persist(path string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	b, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}

// BuildReportSerializable mirrors BuildReport with string errors for JSON output.
type BuildReportSerializable struct {
	SchemaVersion    int                   `json:"schema_version"`
	BuildID          string                `json:"build_id"`
	BuildTime        time.Time             `json:"build_time"`
	Start            time.Time             `json:"start"`
	End              time.Time             `json:"end"`
	DurationMS       int64                 `json:"duration_ms"`
	Errors           []string              `json:"errors"`
	Warnings         []string              `json:"warnings"`
	StageDurationsMS map[string]int64      `json:"stage_durations_ms"`
	StageErrorKinds  map[string]string     `json:"stage_error_kinds"`
	StageCounts      map[string]StageCount `json:"stage_counts"`
	DiscoveredPages  int                   `json:"discovered_pages"`
	RenderedPages    int                   `json:"rendered_pages"`
	SkippedPages     int                   `json:"skipped_pages"`
	PassthroughFiles int                   `json:"passthrough_files"`
	PassthroughBytes int64                 `json:"passthrough_bytes"`
	Collections      map[string]int        `json:"collections"`
	Pages            []PageRecord          `json:"pages"`
	Outcome          string                `json:"outcome"`
}

func (r *BuildReport) serializable() *BuildReportSerializable {
	s := &BuildReportSerializable{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		BuildTime:        r.BuildTime,
		Start:            r.Start,
		End:              r.End,
		DurationMS:       r.Duration().Milliseconds(),
		Errors:           make([]string, len(r.Errors)),
		Warnings:         make([]string, len(r.Warnings)),
		StageDurationsMS: make(map[string]int64, len(r.StageDurations)),
		StageErrorKinds:  make(map[string]string, len(r.StageErrorKinds)),
		StageCounts:      make(map[string]StageCount, len(r.StageCounts)),
		DiscoveredPages:  r.DiscoveredPages,
		RenderedPages:    r.RenderedPages,
		SkippedPages:     r.SkippedPages,
		PassthroughFiles: r.PassthroughFiles,
		PassthroughBytes: r.PassthroughBytes,
		Collections:      r.Collections,
		Pages:            r.Pages,
		Outcome:          string(r.Outcome),
	}
	if s.Pages == nil {
		s.Pages = []PageRecord{}
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	for k, v := range r.StageDurations {
		s.StageDurationsMS[k] = v.Milliseconds()
	}
	for k, v := range r.StageErrorKinds {
		s.StageErrorKinds[string(k)] = string(v)
	}
	for k, v := range r.StageCounts {
		s.StageCounts[string(k)] = v
	}
	return s
}
