// Package milestone walks structured pod logs and emits the ordered boot and
// initialization milestones for a log family. One generic sequencer consumes
// a data-driven catalogue per family, so both dialects share a single
// algorithm and output contract.
package milestone

import (
	"regexp"
	"strconv"
	"time"

	"github.com/avionworks/podlog-go/internal/logtable"
)

// Status is the derived outcome of one milestone.
type Status string

// Milestone statuses.
const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusWarn Status = "WARN"
)

// Source selects which table a catalogue entry searches.
type Source int

// Catalogue entry sources.
const (
	SourcePrimary Source = iota
	SourceMaintenance
	SourceSelfTest
)

// statusRule decides how a captured milestone derives its status.
type statusRule int

const (
	// ruleCaptured: the marker being present is the pass condition.
	ruleCaptured statusRule = iota

	// ruleValuePositive: measured value > 0 passes, otherwise fails.
	// A marker row with no parsable value is a warning.
	ruleValuePositive

	// ruleValueZero: measured count == 0 passes, otherwise fails.
	// A marker row with no parsable value is a warning.
	ruleValueZero

	// ruleDerived: conjunction of every milestone captured so far.
	ruleDerived
)

// Entry is one catalogue position: a named marker searched in a fixed table.
type Entry struct {
	Name string

	// Source is the table the marker is searched in.
	Source Source

	// Matcher is the case-insensitive marker pattern. The first table match
	// wins; tables are time-ordered on input so first is also earliest.
	Matcher *regexp.Regexp

	// ValueCapture optionally pulls a measured value (capture group 1) from
	// the matching row.
	ValueCapture *regexp.Regexp

	// Rule derives the milestone status.
	Rule statusRule

	// PowerEvent marks entries whose captured value is a power cycle count,
	// feeding the first/last power count metrics.
	PowerEvent bool
}

// Catalogue is the fixed, ordered milestone set of one log family.
type Catalogue struct {
	Entries []Entry

	// SessionOpen and SessionClose bracket the flight session in the
	// maintenance table, for the elapsed-time metric. When the closing
	// marker is absent the last primary-log timestamp stands in.
	SessionOpen  *regexp.Regexp
	SessionClose *regexp.Regexp
}

// Milestone is one captured lifecycle event.
type Milestone struct {
	Name      string
	Timestamp time.Time
	Value     string
	Status    Status
}

// Metrics are the session timing figures derived alongside the sequence.
type Metrics struct {
	FirstPowerCount *int
	LastPowerCount  *int
	ElapsedSeconds  *float64
}

// Sequence walks the catalogue in order against the primary, maintenance and
// self-test tables. Each catalogue entry emits at most one milestone; an
// entry whose marker is never found is omitted, which is not a failure
// signal. Output order is catalogue order, by definition.
func Sequence(cat *Catalogue, primary, maintenance, tests *logtable.RecordSet) ([]Milestone, Metrics) {
	var out []Milestone

	for _, entry := range cat.Entries {
		table := sourceTable(entry.Source, primary, maintenance, tests)
		row, found := table.FindFirst(entry.Matcher)
		if !found {
			continue
		}

		m := Milestone{
			Name:      entry.Name,
			Timestamp: row.Time,
		}

		if entry.ValueCapture != nil {
			if vm := entry.ValueCapture.FindStringSubmatch(row.Text); vm != nil {
				m.Value = vm[1]
			}
		}

		m.Status = deriveStatus(entry, m.Value, out)
		out = append(out, m)
	}

	return out, deriveMetrics(cat, out, primary, maintenance)
}

func sourceTable(src Source, primary, maintenance, tests *logtable.RecordSet) *logtable.RecordSet {
	switch src {
	case SourceMaintenance:
		return maintenance
	case SourceSelfTest:
		return tests
	default:
		return primary
	}
}

func deriveStatus(entry Entry, value string, captured []Milestone) Status {
	switch entry.Rule {
	case ruleValuePositive:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return StatusWarn
		}
		if v > 0 {
			return StatusPass
		}
		return StatusFail

	case ruleValueZero:
		n, err := strconv.Atoi(value)
		if err != nil {
			return StatusWarn
		}
		if n == 0 {
			return StatusPass
		}
		return StatusFail

	case ruleDerived:
		return conjunction(captured)

	default:
		return StatusPass
	}
}

// conjunction folds the statuses captured so far: all PASS passes, any FAIL
// fails, otherwise (warnings only) warns. Milestones that were never
// captured do not count against the result.
func conjunction(captured []Milestone) Status {
	status := StatusPass
	for _, m := range captured {
		switch m.Status {
		case StatusFail:
			return StatusFail
		case StatusWarn:
			status = StatusWarn
		}
	}
	return status
}

// deriveMetrics computes the power-count and elapsed-time figures.
func deriveMetrics(cat *Catalogue, captured []Milestone, primary, maintenance *logtable.RecordSet) Metrics {
	var metrics Metrics

	powerEvents := make(map[string]bool)
	for _, entry := range cat.Entries {
		if entry.PowerEvent {
			powerEvents[entry.Name] = true
		}
	}
	for _, m := range captured {
		if !powerEvents[m.Name] {
			continue
		}
		n, err := strconv.Atoi(m.Value)
		if err != nil {
			continue
		}
		count := n
		if metrics.FirstPowerCount == nil {
			metrics.FirstPowerCount = &count
		}
		metrics.LastPowerCount = &count
	}

	if cat.SessionOpen == nil {
		return metrics
	}
	open, ok := maintenance.FindFirst(cat.SessionOpen)
	if !ok {
		return metrics
	}

	var closeTime time.Time
	if cat.SessionClose != nil {
		if row, found := maintenance.FindFirst(cat.SessionClose); found {
			closeTime = row.Time
		}
	}
	if closeTime.IsZero() {
		// Closing marker absent: the last primary-log timestamp stands in.
		last, found := primary.LatestTime()
		if !found {
			return metrics
		}
		closeTime = last
	}

	elapsed := closeTime.Sub(open.Time).Seconds()
	metrics.ElapsedSeconds = &elapsed
	return metrics
}
