// Package mapping guesses which columns of an uploaded event log hold the
// case id, activity name and timestamp. The guess is advisory: the user
// reviews it in the mapping step before anything is submitted.
package mapping

import (
	"strings"

	"procmap/internal/model"
)

// Pattern lists ordered most- to least-specific. For a role the first
// pattern with any matching column wins, and within a pattern the first
// column in document order wins.
var (
	casePatterns      = []string{"case_id", "caseid", "case", "id", "trace_id", "traceid"}
	activityPatterns  = []string{"activity", "event", "action", "step", "task"}
	timestampPatterns = []string{"timestamp", "time", "date", "datetime", "created", "start"}
)

// Detect proposes a ColumnMapping for the given column names. Roles are
// resolved independently, so one column can satisfy two roles; columns
// with no match leave the role unset. Never fails.
func Detect(columns []string) model.ColumnMapping {
	return model.ColumnMapping{
		CaseID:    firstMatch(columns, casePatterns),
		Activity:  firstMatch(columns, activityPatterns),
		Timestamp: firstMatch(columns, timestampPatterns),
	}
}

func firstMatch(columns, patterns []string) string {
	for _, pat := range patterns {
		for _, col := range columns {
			if strings.Contains(strings.ToLower(col), pat) {
				return col
			}
		}
	}
	return ""
}
