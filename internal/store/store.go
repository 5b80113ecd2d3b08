// Package store holds the single active analysis session, the filter
// criteria scoped to it, and the UI selection state. All mutation happens
// on the TUI event loop; the store is deliberately lock-free.
package store

import "procmap/internal/model"

// FetchTarget identifies one of the session-dependent views. Generations
// are tracked per target so a stale response for one view cannot clobber
// another.
type FetchTarget int

const (
	TargetGraph FetchTarget = iota
	TargetMetrics
	TargetBottlenecks
	targetCount
)

// Store is the single writer of session, filter and selection state.
type Store struct {
	session    *model.Session
	filters    model.FilterCriteria
	hasFilters bool

	selectedNode    *model.NodeSelection
	selectedVariant *model.Variant

	generations [targetCount]uint64
	loading     [targetCount]bool
}

func New() *Store {
	return &Store{}
}

// Session returns the active session, or nil.
func (s *Store) Session() *model.Session {
	return s.session
}

// SetSession replaces the active session. Filters, both selections and all
// in-flight fetch generations are invalidated in this same transition, so
// no observer can see the new session paired with stale dependent state.
func (s *Store) SetSession(session model.Session) {
	s.session = &session
	s.resetDependentState()
}

// ClearSession destroys the session and everything scoped to it.
func (s *Store) ClearSession() {
	s.session = nil
	s.resetDependentState()
}

func (s *Store) resetDependentState() {
	s.filters = model.FilterCriteria{}
	s.hasFilters = false
	s.selectedNode = nil
	s.selectedVariant = nil
	for t := range s.generations {
		s.generations[t]++ // orphan any response still in flight
		s.loading[t] = false
	}
}

// Filters returns the active criteria; the zero value means no filter.
func (s *Store) Filters() model.FilterCriteria {
	return s.filters
}

// HasFilters reports whether criteria were explicitly applied, which is
// distinct from the criteria being semantically empty.
func (s *Store) HasFilters() bool {
	return s.hasFilters
}

// ApplyFilters stores criteria as active. The caller re-runs dependent
// fetches; the store only records the state.
func (s *Store) ApplyFilters(criteria model.FilterCriteria) {
	s.filters = criteria
	s.hasFilters = true
}

// ClearFilters resets to "no filter". Idempotent: clearing when nothing is
// active changes nothing.
func (s *Store) ClearFilters() {
	s.filters = model.FilterCriteria{}
	s.hasFilters = false
}

// SelectNode records a node selection for display. Purely observational.
func (s *Store) SelectNode(sel model.NodeSelection) {
	s.selectedNode = &sel
}

// SelectedNode returns the current node selection, or nil.
func (s *Store) SelectedNode() *model.NodeSelection {
	return s.selectedNode
}

// ToggleVariant selects a variant, or clears the selection when the same
// variant (by activity sequence, not identity) is applied again.
func (s *Store) ToggleVariant(v model.Variant) {
	if s.selectedVariant != nil && s.selectedVariant.Equal(v) {
		s.selectedVariant = nil
		return
	}
	s.selectedVariant = &v
}

// SelectedVariant returns the current variant selection, or nil.
func (s *Store) SelectedVariant() *model.Variant {
	return s.selectedVariant
}

// BeginFetch stamps a new fetch for the target and marks it loading. The
// returned generation must accompany the response back to Accept.
func (s *Store) BeginFetch(target FetchTarget) uint64 {
	s.generations[target]++
	s.loading[target] = true
	return s.generations[target]
}

// Accept reports whether a response with the given generation is still the
// latest for its target. Stale responses must be discarded by the caller;
// only the latest arrival clears the loading flag.
func (s *Store) Accept(target FetchTarget, generation uint64) bool {
	if generation != s.generations[target] {
		return false
	}
	s.loading[target] = false
	return true
}

// Loading reports whether the latest fetch for the target is unresolved.
func (s *Store) Loading(target FetchTarget) bool {
	return s.loading[target]
}
