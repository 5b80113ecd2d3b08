package store

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ActivityEntry is one timestamped line of the upload activity log.
type ActivityEntry struct {
	Time    time.Time
	Message string
}

// ActivityLog is the append-only record of upload milestones (file
// selection, coarse progress, terminal success or error). It is advisory
// output for the user and for debugging; control flow never consults it.
// Progress milestones arrive from upload goroutines while the event loop
// reads entries for display, hence the lock.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	sink    *lumberjack.Logger
	now     func() time.Time
}

// NewActivityLog returns a log that keeps entries in memory. When path is
// non-empty, entries are also appended to a size-rotated file.
func NewActivityLog(path string) *ActivityLog {
	l := &ActivityLog{now: time.Now}
	if path != "" {
		l.sink = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    5, // MB
			MaxBackups: 2,
		}
	}
	return l
}

// Logf appends a formatted entry stamped at the moment of the call.
func (l *ActivityLog) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := ActivityEntry{Time: l.now(), Message: fmt.Sprintf(format, args...)}
	l.entries = append(l.entries, entry)
	if l.sink != nil {
		fmt.Fprintf(l.sink, "%s %s\n", entry.Time.Format(time.RFC3339), entry.Message)
	}
}

// Entries returns a snapshot of the log in append order.
func (l *ActivityLog) Entries() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ActivityEntry(nil), l.entries...)
}

// Clear drops accumulated entries (used when an upload is cancelled).
func (l *ActivityLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
