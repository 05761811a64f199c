package project

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// Policy selects how the projects collection is ordered.
type Policy string

const (
	// PolicyStatusTitle orders by status rank, then by title using en-US collation.
	PolicyStatusTitle Policy = "status"
	// PolicyPriority orders by ascending numeric priority; ties keep input order.
	PolicyPriority Policy = "priority"
)

var policyNormalizer = normalization.NewNormalizer("projects sort policy", map[string]Policy{
	"status":       PolicyStatusTitle,
	"status-title": PolicyStatusTitle,
	"priority":     PolicyPriority,
}, PolicyStatusTitle)

// ParsePolicy resolves a configured policy name. Empty selects PolicyStatusTitle.
func ParsePolicy(raw string) (Policy, error) {
	p, err := policyNormalizer.NormalizeOrDefault(raw)
	if err != nil {
		return "", ferrors.ConfigError("invalid projects sort policy").WithCause(err).Build()
	}
	return p, nil
}

// Entry is the sortable view of a project page.
type Entry struct {
	Title    string
	Status   Status
	Priority float64
	// Source identifies the entry in error messages (usually the input path).
	Source string
}

// EntryFromData builds an Entry from page data. Only the field the policy sorts
// on is required: status for PolicyStatusTitle, priority for PolicyPriority.
func EntryFromData(source string, data map[string]any, policy Policy) (Entry, error) {
	e := Entry{Source: source}
	if title, ok := data["title"]; ok && title != nil {
		e.Title = fmt.Sprint(title)
	}

	switch policy {
	case PolicyStatusTitle:
		s, err := statusOf(data["status"])
		if err != nil {
			return Entry{}, withSource(err, source)
		}
		e.Status = s
	case PolicyPriority:
		p, err := priorityOf(data["priority"])
		if err != nil {
			return Entry{}, withSource(err, source)
		}
		e.Priority = p
	default:
		return Entry{}, ferrors.ConfigError("invalid projects sort policy").WithContext("policy", string(policy)).Build()
	}
	return e, nil
}

func withSource(err error, source string) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext("entry", source)
	}
	return err
}

func statusOf(v any) (Status, error) {
	switch raw := v.(type) {
	case nil:
		return ParseStatus("")
	case string:
		return ParseStatus(raw)
	default:
		return StatusUnknown, ferrors.ValidationError("unknown project status").
			WithContext("status", fmt.Sprint(v)).
			WithContext("type", fmt.Sprintf("%T", v)).
			WithContext("valid", statusNormalizer.ValidKeys()).
			Build()
	}
}

func priorityOf(v any) (float64, error) {
	var p float64
	switch n := v.(type) {
	case nil:
		return 0, ferrors.ValidationError("project priority is missing").Build()
	case int:
		p = float64(n)
	case int64:
		p = float64(n)
	case uint64:
		p = float64(n)
	case float64:
		p = n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, ferrors.ValidationError("project priority is not a number").WithContext("priority", n).Build()
		}
		p = f
	default:
		return 0, ferrors.ValidationError("project priority is not a number").WithContext("priority", fmt.Sprint(v)).Build()
	}
	if math.IsNaN(p) {
		return 0, ferrors.ValidationError("project priority is not a number").Build()
	}
	return p, nil
}

type keyed[T any] struct {
	item  T
	entry Entry
}

// Sort returns items ordered by policy. The input slice is not modified.
// entryOf maps each item to its sort keys; the first error aborts the sort.
func Sort[T any](items []T, policy Policy, entryOf func(T) (Entry, error)) ([]T, error) {
	ks := make([]keyed[T], 0, len(items))
	for _, it := range items {
		e, err := entryOf(it)
		if err != nil {
			return nil, err
		}
		if err := validate(e, policy); err != nil {
			return nil, err
		}
		ks = append(ks, keyed[T]{item: it, entry: e})
	}

	switch policy {
	case PolicyPriority:
		slices.SortStableFunc(ks, func(a, b keyed[T]) int {
			return cmp.Compare(a.entry.Priority, b.entry.Priority)
		})
	case PolicyStatusTitle:
		// Collators keep internal buffers; one per sort call.
		col := collate.New(language.AmericanEnglish, collate.IgnoreCase)
		slices.SortStableFunc(ks, func(a, b keyed[T]) int {
			if d := cmp.Compare(a.entry.Status.Rank(), b.entry.Status.Rank()); d != 0 {
				return d
			}
			return col.CompareString(a.entry.Title, b.entry.Title)
		})
	default:
		return nil, ferrors.ConfigError("invalid projects sort policy").WithContext("policy", string(policy)).Build()
	}

	out := make([]T, len(ks))
	for i, k := range ks {
		out[i] = k.item
	}
	return out, nil
}

// SortEntries is Sort over bare entries.
func SortEntries(entries []Entry, policy Policy) ([]Entry, error) {
	return Sort(entries, policy, func(e Entry) (Entry, error) { return e, nil })
}

func validate(e Entry, policy Policy) error {
	switch policy {
	case PolicyStatusTitle:
		if !e.Status.Valid() {
			return ferrors.ValidationError("project status has no rank").
				WithContext("entry", e.Source).
				WithContext("status", e.Status.String()).
				Build()
		}
	case PolicyPriority:
		if math.IsNaN(e.Priority) {
			return ferrors.ValidationError("project priority is not a number").WithContext("entry", e.Source).Build()
		}
	}
	return nil
}
