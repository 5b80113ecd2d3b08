package store

import "procmap/internal/model"

// FilterForm accumulates filter edits before they are applied. It is the
// editable counterpart of model.FilterCriteria.
type FilterForm struct {
	DateStart string
	DateEnd   string
	excluded  []string // toggle insertion order
}

// ToggleExclusion adds the activity to the exclusion set when absent and
// removes it when present.
func (f *FilterForm) ToggleExclusion(activity string) {
	for i, a := range f.excluded {
		if a == activity {
			f.excluded = append(f.excluded[:i], f.excluded[i+1:]...)
			return
		}
	}
	f.excluded = append(f.excluded, activity)
}

// Excluded reports whether the activity is currently excluded.
func (f *FilterForm) Excluded(activity string) bool {
	for _, a := range f.excluded {
		if a == activity {
			return true
		}
	}
	return false
}

// CanApply reports whether at least one filter dimension is set. Apply is
// disabled otherwise.
func (f *FilterForm) CanApply() bool {
	return f.DateStart != "" || f.DateEnd != "" || len(f.excluded) > 0
}

// Criteria builds the criteria to apply.
func (f *FilterForm) Criteria() model.FilterCriteria {
	return model.FilterCriteria{
		DateStart:          f.DateStart,
		DateEnd:            f.DateEnd,
		ExcludedActivities: append([]string(nil), f.excluded...),
	}
}

// Reset clears all edits.
func (f *FilterForm) Reset() {
	f.DateStart = ""
	f.DateEnd = ""
	f.excluded = nil
}

// Load seeds the form from active criteria so reopening the panel shows
// what is applied.
func (f *FilterForm) Load(c model.FilterCriteria) {
	f.DateStart = c.DateStart
	f.DateEnd = c.DateEnd
	f.excluded = append([]string(nil), c.ExcludedActivities...)
}
