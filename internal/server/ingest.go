package server

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"procmap/internal/model"
)

// event is one row of a parsed log.
type event struct {
	CaseID    string
	Activity  string
	Timestamp time.Time
}

// eventLog groups events by case, each case ordered by timestamp.
type eventLog struct {
	Filename string
	CaseIDs  []string // first-seen order
	Cases    map[string][]event
}

func newEventLog(filename string) *eventLog {
	return &eventLog{Filename: filename, Cases: make(map[string][]event)}
}

func (l *eventLog) add(e event) {
	if _, ok := l.Cases[e.CaseID]; !ok {
		l.CaseIDs = append(l.CaseIDs, e.CaseID)
	}
	l.Cases[e.CaseID] = append(l.Cases[e.CaseID], e)
}

func (l *eventLog) sortCases() {
	for id := range l.Cases {
		events := l.Cases[id]
		sort.SliceStable(events, func(a, b int) bool {
			return events[a].Timestamp.Before(events[b].Timestamp)
		})
	}
}

func (l *eventLog) eventCount() int {
	total := 0
	for _, events := range l.Cases {
		total += len(events)
	}
	return total
}

// activities returns distinct activity names sorted alphabetically, the
// order the session summary reports them in.
func (l *eventLog) activities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range l.CaseIDs {
		for _, e := range l.Cases[id] {
			if !seen[e.Activity] {
				seen[e.Activity] = true
				out = append(out, e.Activity)
			}
		}
	}
	sort.Strings(out)
	return out
}

// timestampFormats tried in order when parsing CSV timestamps.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// parseCSV builds an event log from CSV content using the given mapping.
func parseCSV(filename string, content []byte, m model.ColumnMapping) (*eventLog, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("the uploaded file is empty")
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[col] = i
	}
	var missing []string
	for _, col := range []string{m.CaseID, m.Activity, m.Timestamp} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV file missing required columns: %s", strings.Join(missing, ", "))
	}

	log := newEventLog(filename)
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row fails the whole file; a session built from
			// the rows before it would report wrong counts and metrics.
			return nil, fmt.Errorf("Error processing file: %v", err)
		}
		line++
		ts, err := parseTimestamp(record[idx[m.Timestamp]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		log.add(event{
			CaseID:    record[idx[m.CaseID]],
			Activity:  record[idx[m.Activity]],
			Timestamp: ts,
		})
	}

	if len(log.CaseIDs) == 0 {
		return nil, fmt.Errorf("the uploaded file contains no events")
	}
	log.sortCases()
	return log, nil
}

// readColumns returns the CSV header and up to maxRows preview rows as
// column-name keyed maps, for the mapping step.
func readColumns(content []byte, maxRows int) (columns []string, rows []map[string]string, total int, err error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.TrimLeadingSpace = true

	columns, err = r.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("the uploaded file is empty")
	}

	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col] {
			// Preview rows are keyed by column name, so duplicates would
			// silently merge.
			return nil, nil, 0, fmt.Errorf("CSV file contains duplicate column name: %s", col)
		}
		seen[col] = true
	}

	rows = []map[string]string{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("Error processing file: %v", err)
		}
		total++
		if len(rows) < maxRows {
			row := make(map[string]string, len(columns))
			for i, col := range columns {
				if i < len(record) {
					row[col] = record[i]
				}
			}
			rows = append(rows, row)
		}
	}
	return columns, rows, total, nil
}

// XES document shapes. Only concept:name and time:timestamp attributes
// are consumed.
type xesLog struct {
	Traces []xesTrace `xml:"trace"`
}

type xesTrace struct {
	Strings []xesAttr  `xml:"string"`
	Events  []xesEvent `xml:"event"`
}

type xesEvent struct {
	Strings []xesAttr `xml:"string"`
	Dates   []xesAttr `xml:"date"`
}

type xesAttr struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

func attrValue(attrs []xesAttr, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// parseXES builds an event log from an XES document. XES already names
// its fields, so no mapping step applies.
func parseXES(filename string, content []byte) (*eventLog, error) {
	var doc xesLog
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid XES document: %v", err)
	}

	log := newEventLog(filename)
	for i, trace := range doc.Traces {
		caseID := attrValue(trace.Strings, "concept:name")
		if caseID == "" {
			caseID = fmt.Sprintf("case_%d", i+1)
		}
		for _, ev := range trace.Events {
			name := attrValue(ev.Strings, "concept:name")
			if name == "" {
				continue
			}
			ts, err := time.Parse(time.RFC3339, attrValue(ev.Dates, "time:timestamp"))
			if err != nil {
				return nil, fmt.Errorf("trace %q: %v", caseID, err)
			}
			log.add(event{CaseID: caseID, Activity: name, Timestamp: ts})
		}
	}

	if len(log.CaseIDs) == 0 {
		return nil, fmt.Errorf("the uploaded file contains no events")
	}
	log.sortCases()
	return log, nil
}
