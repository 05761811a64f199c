// Package project models portfolio project entries and the deterministic
// ordering of the projects collection.
package project

import (
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// Status is the lifecycle state of a project. The zero value is not a valid status.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusActive
	StatusMaintenance
	StatusRefactoring
	StatusArchived
)

var statusNormalizer = normalization.NewNormalizer("project status", map[string]Status{
	"active":      StatusActive,
	"maintenance": StatusMaintenance,
	"refactoring": StatusRefactoring,
	"archived":    StatusArchived,
}, StatusUnknown)

// ParseStatus converts a frontmatter label into a Status. Labels are matched
// case-insensitively; missing and unknown labels are validation errors.
func ParseStatus(raw string) (Status, error) {
	if normalization.Clean(raw) == "" {
		return StatusUnknown, ferrors.ValidationError("project status is missing").Build()
	}
	s, err := statusNormalizer.NormalizeWithError(raw)
	if err != nil {
		return StatusUnknown, ferrors.ValidationError("unknown project status").
			WithContext("status", raw).
			WithContext("valid", statusNormalizer.ValidKeys()).
			WithCause(err).
			Build()
	}
	return s, nil
}

// Rank returns the sort rank of s; lower ranks sort first. Invalid statuses rank 0.
func (s Status) Rank() int {
	switch s {
	case StatusActive:
		return 1
	case StatusMaintenance:
		return 2
	case StatusRefactoring:
		return 3
	case StatusArchived:
		return 4
	case StatusUnknown:
		return 0
	}
	return 0
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool { return s.Rank() > 0 }

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusMaintenance:
		return "maintenance"
	case StatusRefactoring:
		return "refactoring"
	case StatusArchived:
		return "archived"
	case StatusUnknown:
		return "unknown"
	}
	return "unknown"
}

// Statuses lists every valid status in rank order.
func Statuses() []Status {
	return []Status{StatusActive, StatusMaintenance, StatusRefactoring, StatusArchived}
}
