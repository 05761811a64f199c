package build

import "errors"

// Sentinel errors wrapped by stage failures.
var (
	ErrUnsafeOutputDir    = errors.New("output directory contains the input directory")
	ErrLayoutNotFound     = errors.New("layout not found")
	ErrLayoutCycle        = errors.New("layout chain contains a cycle")
	ErrOutputCollision    = errors.New("pages share an output file")
	ErrNoPages            = errors.New("no pages found")
	ErrMissingPassthrough = errors.New("passthrough source missing")
)
