package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procmap/internal/model"
)

func TestSetSessionClearsDependentStateAtomically(t *testing.T) {
	s := New()
	s.SetSession(model.Session{ID: "old"})
	s.ApplyFilters(model.FilterCriteria{DateStart: "2024-01-01"})
	s.SelectNode(model.NodeSelection{ID: "a", Label: "a", Frequency: 3})
	s.ToggleVariant(model.Variant{Activities: []string{"a", "b"}})

	s.SetSession(model.Session{ID: "new"})

	// A single observation after the transition must show the new
	// session with no filters and no selections.
	require.NotNil(t, s.Session())
	assert.Equal(t, "new", s.Session().ID)
	assert.True(t, s.Filters().IsZero())
	assert.False(t, s.HasFilters())
	assert.Nil(t, s.SelectedNode())
	assert.Nil(t, s.SelectedVariant())
}

func TestSessionReplacementOrphansInFlightFetches(t *testing.T) {
	s := New()
	s.SetSession(model.Session{ID: "old"})
	gen := s.BeginFetch(TargetGraph)

	s.SetSession(model.Session{ID: "new"})

	assert.False(t, s.Accept(TargetGraph, gen), "response for the old session must be discarded")
}

func TestGenerationGuardKeepsLatestFetch(t *testing.T) {
	s := New()
	s.SetSession(model.Session{ID: "s"})

	first := s.BeginFetch(TargetGraph)
	second := s.BeginFetch(TargetGraph)

	// Second-triggered fetch resolves first.
	assert.True(t, s.Accept(TargetGraph, second))
	assert.False(t, s.Loading(TargetGraph))

	// The earlier-triggered response arrives late and must be dropped.
	assert.False(t, s.Accept(TargetGraph, first))
	assert.False(t, s.Loading(TargetGraph))
}

func TestLoadingClearedOnlyByLatestGeneration(t *testing.T) {
	s := New()
	first := s.BeginFetch(TargetMetrics)
	second := s.BeginFetch(TargetMetrics)

	assert.True(t, s.Loading(TargetMetrics))
	assert.False(t, s.Accept(TargetMetrics, first))
	assert.True(t, s.Loading(TargetMetrics), "stale arrival must not clear loading")
	assert.True(t, s.Accept(TargetMetrics, second))
	assert.False(t, s.Loading(TargetMetrics))
}

func TestClearFiltersIsIdempotent(t *testing.T) {
	s := New()

	s.ClearFilters()
	assert.True(t, s.Filters().IsZero())
	assert.False(t, s.HasFilters())

	s.ApplyFilters(model.FilterCriteria{ExcludedActivities: []string{"Ship"}})
	assert.True(t, s.HasFilters())

	s.ClearFilters()
	s.ClearFilters()
	assert.True(t, s.Filters().IsZero())
	assert.False(t, s.HasFilters())
}

func TestVariantToggleRoundTrip(t *testing.T) {
	s := New()
	v := model.Variant{Activities: []string{"a", "b", "c"}, Count: 4}

	s.ToggleVariant(v)
	require.NotNil(t, s.SelectedVariant())

	// Same sequence in a distinct slice: equality is element-wise.
	same := model.Variant{Activities: []string{"a", "b", "c"}, Count: 4}
	s.ToggleVariant(same)
	assert.Nil(t, s.SelectedVariant())
}

func TestVariantToggleSwitchesSelection(t *testing.T) {
	s := New()
	s.ToggleVariant(model.Variant{Activities: []string{"a"}})
	s.ToggleVariant(model.Variant{Activities: []string{"a", "b"}})

	require.NotNil(t, s.SelectedVariant())
	assert.Equal(t, []string{"a", "b"}, s.SelectedVariant().Activities)
}

func TestFilterFormToggleSemantics(t *testing.T) {
	var f FilterForm

	assert.False(t, f.CanApply())

	f.ToggleExclusion("Ship")
	assert.True(t, f.Excluded("Ship"))
	assert.True(t, f.CanApply())

	f.ToggleExclusion("Ship")
	assert.False(t, f.Excluded("Ship"))
	assert.False(t, f.CanApply())

	f.DateStart = "2024-01-01"
	assert.True(t, f.CanApply())
}

func TestFilterFormCriteriaCopiesExclusions(t *testing.T) {
	var f FilterForm
	f.ToggleExclusion("A")
	c := f.Criteria()
	f.ToggleExclusion("B")

	assert.Equal(t, []string{"A"}, c.ExcludedActivities)
}

func TestActivityLogAppendsInOrder(t *testing.T) {
	l := NewActivityLog("")
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	l.Logf("selected %s", "events.csv")
	l.Logf("upload %d%%", 40)
	l.Logf("preview ready")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "selected events.csv", entries[0].Message)
	assert.True(t, entries[0].Time.Before(entries[1].Time))
	assert.True(t, entries[1].Time.Before(entries[2].Time))

	l.Clear()
	assert.Empty(t, l.Entries())
}
