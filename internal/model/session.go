package model

// Session is the server-side scope binding all analysis queries to one
// confirmed, mapped event log. At most one is active in the UI at a time.
type Session struct {
	ID         string   `json:"session_id"`
	CaseCount  int      `json:"case_count"`
	EventCount int      `json:"event_count"`
	Activities []string `json:"activities"` // display order as received
}

// PendingUpload is the transient state between a raw file upload and
// mapping confirmation. It is discarded once a Session exists.
type PendingUpload struct {
	TempID      string              `json:"temp_id"`
	Columns     []string            `json:"columns"`
	PreviewRows []map[string]string `json:"preview_rows"`
	RowCount    int                 `json:"row_count"`
}

// ColumnMapping assigns event-log roles to columns of a PendingUpload.
// Fields are column names, empty when unset.
type ColumnMapping struct {
	CaseID    string
	Activity  string
	Timestamp string
}

// Complete reports whether all three roles are assigned. Submission is
// gated on this; the same column may legitimately serve two roles.
func (m ColumnMapping) Complete() bool {
	return m.CaseID != "" && m.Activity != "" && m.Timestamp != ""
}

// FilterCriteria is the predicate applied to the active session's event
// log for all dependent views. The zero value means "no filter".
//
// Dates are inclusive bounds in YYYY-MM-DD form, empty when unset.
// Activities is an allow-list that exists in the wire contract but is
// never populated by any UI path.
type FilterCriteria struct {
	DateStart          string
	DateEnd            string
	ExcludedActivities []string
	Activities         []string
}

// IsZero reports whether no filter dimension is set.
func (f FilterCriteria) IsZero() bool {
	return f.DateStart == "" && f.DateEnd == "" &&
		len(f.ExcludedActivities) == 0 && len(f.Activities) == 0
}

// Equal compares criteria element-wise.
func (f FilterCriteria) Equal(other FilterCriteria) bool {
	if f.DateStart != other.DateStart || f.DateEnd != other.DateEnd {
		return false
	}
	return equalStrings(f.ExcludedActivities, other.ExcludedActivities) &&
		equalStrings(f.Activities, other.Activities)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
