package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// buildStatus tracks the latest build for the health endpoint and error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
	lastReport   *build.BuildReport
	builds       int
}

func (bs *buildStatus) record(report *build.BuildReport, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.lastReport = report
	bs.lastError = err
	if err == nil {
		bs.hasGoodBuild = true
	}
}

func (bs *buildStatus) getStatus() (hasError bool, err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError != nil, bs.lastError, bs.hasGoodBuild
}

// healthResponse is the /health payload.
type healthResponse struct {
	Status       string    `json:"status"`
	Builds       int       `json:"builds"`
	LastBuildID  string    `json:"last_build_id,omitempty"`
	LastOutcome  string    `json:"last_outcome,omitempty"`
	LastBuildEnd time.Time `json:"last_build_end,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
	Version      string    `json:"version"`
}

func (bs *buildStatus) health(version string) healthResponse {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	h := healthResponse{Status: "ok", Builds: bs.builds, Version: version}
	switch {
	case bs.builds == 0:
		h.Status = "starting"
	case bs.lastError != nil:
		h.Status = "error"
		h.LastError = bs.lastError.Error()
	}
	if r := bs.lastReport; r != nil {
		h.LastBuildID = r.BuildID
		h.LastOutcome = string(r.Outcome)
		h.LastBuildEnd = r.End
	}
	return h
}
