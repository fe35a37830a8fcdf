package models

import (
	"encoding/json"
	"time"
)

// TimestampLayout renders times in UTC with millisecond precision, the
// format JavaScript's Date.toISOString produces.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Severity classifies how a journal submission was handled.
// Only SeverityNone and SeverityUrgent are ever persisted.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityUrgent   Severity = "urgent"
	SeverityModerate Severity = "moderate"
)

// Persistable reports whether s may be written to the journal store.
func (s Severity) Persistable() bool {
	return s == SeverityNone || s == SeverityUrgent
}

// JournalEntry is a single journal submission together with the
// reflection that was produced for it. Entries are append-only.
type JournalEntry struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Mood        string    `json:"mood"`
	Reflection  string    `json:"reflection"`
	Suggestions []string  `json:"suggestions"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MarshalJSON writes CreatedAt in TimestampLayout.
func (e JournalEntry) MarshalJSON() ([]byte, error) {
	type entry JournalEntry
	return json.Marshal(struct {
		entry
		CreatedAt string `json:"createdAt"`
	}{entry(e), e.CreatedAt.UTC().Format(TimestampLayout)})
}
