package project

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func titles(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestSort_PriorityNonDecreasingAndStable(t *testing.T) {
	in := []Entry{
		{Title: "c", Priority: 2},
		{Title: "a", Priority: 1},
		{Title: "d", Priority: 2},
		{Title: "b", Priority: 1},
		{Title: "e", Priority: -3.5},
		{Title: "f", Priority: 2},
	}

	got, err := SortEntries(in, PolicyPriority)
	require.NoError(t, err)

	assert.Equal(t, []string{"e", "a", "b", "c", "d", "f"}, titles(got))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Priority, got[i].Priority)
	}
	assert.Equal(t, "c", in[0].Title, "input must not be reordered")
}

func TestSort_StatusThenTitle(t *testing.T) {
	in := []Entry{
		{Title: "zeta", Status: StatusArchived},
		{Title: "Beta", Status: StatusActive},
		{Title: "alpha", Status: StatusMaintenance},
		{Title: "alpha", Status: StatusActive},
		{Title: "Gamma", Status: StatusRefactoring},
		{Title: "delta", Status: StatusActive},
	}

	got, err := SortEntries(in, PolicyStatusTitle)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "Beta", "delta", "alpha", "Gamma", "zeta"}, titles(got))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Status.Rank(), got[i].Status.Rank())
	}
}

func TestSort_TitleCollationIsLocaleAware(t *testing.T) {
	in := []Entry{
		{Title: "cafz", Status: StatusActive},
		{Title: "café", Status: StatusActive},
		{Title: "Cafa", Status: StatusActive},
		{Title: "Éclair", Status: StatusActive},
		{Title: "dog", Status: StatusActive},
	}

	got, err := SortEntries(in, PolicyStatusTitle)
	require.NoError(t, err)

	// Code point order would put "café" after "cafz" and "Éclair" last.
	assert.Equal(t, []string{"Cafa", "café", "cafz", "dog", "Éclair"}, titles(got))
}

func TestSort_RejectsUnrankedStatus(t *testing.T) {
	in := []Entry{
		{Title: "ok", Status: StatusActive, Source: "projects/ok.md"},
		{Title: "broken", Source: "projects/broken.md"},
	}

	got, err := SortEntries(in, PolicyStatusTitle)
	require.Error(t, err)
	assert.Nil(t, got)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryValidation, ce.Category())
	entry, _ := ce.Context().GetString("entry")
	assert.Equal(t, "projects/broken.md", entry)
}

func TestSort_GenericItems(t *testing.T) {
	type page struct {
		path string
		data map[string]any
	}
	pages := []page{
		{"b.md", map[string]any{"title": "B", "status": "archived"}},
		{"a.md", map[string]any{"title": "A", "status": "Active"}},
	}

	got, err := Sort(pages, PolicyStatusTitle, func(p page) (Entry, error) {
		return EntryFromData(p.path, p.data, PolicyStatusTitle)
	})
	require.NoError(t, err)
	assert.Equal(t, "a.md", got[0].path)
	assert.Equal(t, "b.md", got[1].path)
}

func TestEntryFromData(t *testing.T) {
	t.Run("missing status in status mode", func(t *testing.T) {
		_, err := EntryFromData("p.md", map[string]any{"title": "P"}, PolicyStatusTitle)
		require.Error(t, err)
		ce, ok := ferrors.AsClassified(err)
		require.True(t, ok)
		entry, _ := ce.Context().GetString("entry")
		assert.Equal(t, "p.md", entry)
	})

	t.Run("non-string status is unknown, not missing", func(t *testing.T) {
		for _, v := range []any{true, 1, 2.5} {
			_, err := EntryFromData("p.md", map[string]any{"title": "P", "status": v}, PolicyStatusTitle)
			require.Error(t, err)
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, ferrors.CategoryValidation, ce.Category())
			assert.Equal(t, "unknown project status", ce.Message())
			status, _ := ce.Context().GetString("status")
			assert.Equal(t, fmt.Sprint(v), status)
			entry, _ := ce.Context().GetString("entry")
			assert.Equal(t, "p.md", entry)
		}
	})

	t.Run("status not required in priority mode", func(t *testing.T) {
		e, err := EntryFromData("p.md", map[string]any{"title": "P", "priority": 3}, PolicyPriority)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, e.Priority, 0)
	})

	t.Run("priority variants", func(t *testing.T) {
		for _, v := range []any{2, int64(2), uint64(2), 2.0, " 2 "} {
			e, err := EntryFromData("p.md", map[string]any{"priority": v}, PolicyPriority)
			require.NoError(t, err)
			assert.InDelta(t, 2.0, e.Priority, 0)
		}
	})

	t.Run("bad priority", func(t *testing.T) {
		for _, v := range []any{nil, "high", []int{1}} {
			_, err := EntryFromData("p.md", map[string]any{"priority": v}, PolicyPriority)
			assert.Error(t, err)
		}
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStatusTitle, p)

	p, err = ParsePolicy("Priority")
	require.NoError(t, err)
	assert.Equal(t, PolicyPriority, p)

	_, err = ParsePolicy("random")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}
