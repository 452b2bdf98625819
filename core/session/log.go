package session

import "github.com/kilianp07/bms12v/core/model"

// RationaleLog is a bounded newest-first log of rationale entries. An entry
// is only appended when its text differs from the current head. It is not
// safe for concurrent use; Session guards it.
type RationaleLog struct {
	capacity int
	nextID   uint64
	entries  []model.RationaleEntry
}

// NewRationaleLog creates a log holding at most capacity entries.
func NewRationaleLog(capacity int) *RationaleLog {
	if capacity < 1 {
		capacity = 1
	}
	return &RationaleLog{capacity: capacity, entries: make([]model.RationaleEntry, 0, capacity)}
}

// Append records text unless it repeats the head. It returns the head after
// the call and whether a new entry was added.
func (l *RationaleLog) Append(sev model.Severity, text string) (model.RationaleEntry, bool) {
	if len(l.entries) > 0 && l.entries[0].Text == text {
		return l.entries[0], false
	}
	e := model.RationaleEntry{ID: l.nextID, Severity: sev, Text: text}
	l.nextID++
	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, model.RationaleEntry{})
	}
	copy(l.entries[1:], l.entries[:len(l.entries)-1])
	l.entries[0] = e
	return e, true
}

// Head returns the newest entry.
func (l *RationaleLog) Head() (model.RationaleEntry, bool) {
	if len(l.entries) == 0 {
		return model.RationaleEntry{}, false
	}
	return l.entries[0], true
}

// Entries returns a copy of the log, newest first.
func (l *RationaleLog) Entries() []model.RationaleEntry {
	out := make([]model.RationaleEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *RationaleLog) Len() int { return len(l.entries) }
