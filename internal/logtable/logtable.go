// Package logtable defines the structured log model produced by the pod log
// parser: a chronological entry table, a key/value attribute table, and
// pre-sliced sub-tables for the self-test and maintenance sections.
// Extraction components consume this bundle as-is and never go back to raw
// bytes.
package logtable

import (
	"regexp"
	"time"
)

// Entry is one structured log row.
type Entry struct {
	// Time is the primary timestamp of the row.
	Time time.Time

	// TimeAlt is the optional secondary clock reading (e.g. GPS time vs
	// vehicle time). Nil when the firmware emitted only one clock.
	TimeAlt *time.Time

	// Function is the firmware function that emitted the row.
	Function string

	// Component is the subsystem channel (e.g. "NAV", "PWR", "MAINT").
	Component string

	// Text is the message body of the row.
	Text string
}

// RecordSet is an ordered, time-sorted sequence of log entries.
// It is immutable once produced by the parser.
type RecordSet struct {
	Entries []Entry
}

// Len returns the number of entries.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Entries)
}

// FindFirst returns the first entry whose text matches the pattern, in table
// order. Tables arrive time-ordered from the parser, so the first table match
// is also the first chronological match.
func (rs *RecordSet) FindFirst(pattern *regexp.Regexp) (Entry, bool) {
	if rs == nil {
		return Entry{}, false
	}
	for _, e := range rs.Entries {
		if pattern.MatchString(e.Text) {
			return e, true
		}
	}
	return Entry{}, false
}

// EarliestTime returns the timestamp of the first entry.
func (rs *RecordSet) EarliestTime() (time.Time, bool) {
	if rs.Len() == 0 {
		return time.Time{}, false
	}
	return rs.Entries[0].Time, true
}

// LatestTime returns the timestamp of the last entry.
func (rs *RecordSet) LatestTime() (time.Time, bool) {
	if rs.Len() == 0 {
		return time.Time{}, false
	}
	return rs.Entries[len(rs.Entries)-1].Time, true
}

// Texts returns the text column, in table order.
func (rs *RecordSet) Texts() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, 0, len(rs.Entries))
	for _, e := range rs.Entries {
		out = append(out, e.Text)
	}
	return out
}

// Bundle is the complete parser output for one log file.
type Bundle struct {
	// Records is the full chronological entry table.
	Records *RecordSet

	// Attributes is the header key/value table (e.g. "Sensor ID" -> "100").
	Attributes map[string]string

	// SelfTest is the slice of entries inside the self-test section.
	// Nil when the log has no self-test section.
	SelfTest *RecordSet

	// Maintenance is the slice of entries on the maintenance channel.
	// Nil when the log has no maintenance rows.
	Maintenance *RecordSet
}

// Attribute looks up a header attribute by exact key.
func (b *Bundle) Attribute(key string) (string, bool) {
	if b == nil || b.Attributes == nil {
		return "", false
	}
	v, ok := b.Attributes[key]
	return v, ok
}
