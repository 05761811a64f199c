// Package build runs a site build as a fixed sequence of stages: prepare the
// output directory, load global data, discover pages, apply computed data,
// resolve collections, render bodies, apply layouts, write pages and copy
// passthrough files.
//
// Each stage is a function over a shared BuildState. A stage may return a
// StageError of kind warning to record a problem and continue; any other
// error aborts the build. Every run produces a BuildReport.
package build
