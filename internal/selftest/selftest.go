// Package selftest extracts built-in-test outcomes from the self-test
// section of a pod log. Rows announce one test each, in the form
//
//	BIT <test id> <test name>: <PASS|FAIL|DEGR>[ - message]
//
// A row that does not yield all of name, test ID and status is dropped, not
// defaulted.
package selftest

import (
	"fmt"
	"regexp"
	"time"

	"github.com/avionworks/podlog-go/internal/logtable"
)

// Status is a self-test outcome.
type Status string

// Self-test outcomes reported by both firmware families.
const (
	StatusPass     Status = "PASS"
	StatusFail     Status = "FAIL"
	StatusDegraded Status = "DEGR"
)

// Result is one extracted self-test outcome.
type Result struct {
	Name      string
	TestID    string
	Status    Status
	Message   string
	Timestamp time.Time
}

// statusAlternatives is the status-identifier part of the qualifying pattern.
const statusAlternatives = `PASS|FAIL|DEGR`

var (
	// Independent captures pulled from a qualifying row.
	testIDRe  = regexp.MustCompile(`(?i)\bBIT[ _-]?([0-9A-Za-z]+)\b`)
	nameRe    = regexp.MustCompile(`(?i)\bBIT[ _-]?[0-9A-Za-z]+\s+([A-Za-z][\w .()/-]*?)\s*:`)
	statusRe  = regexp.MustCompile(`\b(` + statusAlternatives + `)\b`)
	messageRe = regexp.MustCompile(`\b(?:` + statusAlternatives + `)\b\s*-\s*(.+)$`)
)

// qualifyingPattern builds the combined test-identifier and status-identifier
// pattern. Supplying a filter narrows the status alternative before capture,
// so rows with other statuses never qualify.
func qualifyingPattern(filter Status) *regexp.Regexp {
	statuses := statusAlternatives
	if filter != "" {
		statuses = string(filter)
	}
	return regexp.MustCompile(fmt.Sprintf(`(?i)\bBIT[ _-]?[0-9A-Za-z]+\b.*\b(?:%s)\b`, statuses))
}

// Extract pulls self-test results from the section, in input row order.
// An empty filter keeps all statuses. includeMessage controls whether the
// optional trailing message is carried on each result.
func Extract(section *logtable.RecordSet, filter Status, includeMessage bool) []Result {
	if section == nil || section.Len() == 0 {
		return nil
	}

	qualifying := qualifyingPattern(filter)

	var results []Result
	for _, entry := range section.Entries {
		if !qualifying.MatchString(entry.Text) {
			continue
		}

		idMatch := testIDRe.FindStringSubmatch(entry.Text)
		nameMatch := nameRe.FindStringSubmatch(entry.Text)
		statusMatch := statusRe.FindStringSubmatch(entry.Text)
		if idMatch == nil || nameMatch == nil || statusMatch == nil {
			continue
		}
		if filter != "" && Status(statusMatch[1]) != filter {
			continue
		}

		result := Result{
			Name:      nameMatch[1],
			TestID:    idMatch[1],
			Status:    Status(statusMatch[1]),
			Timestamp: entry.Time,
		}
		if includeMessage {
			if m := messageRe.FindStringSubmatch(entry.Text); m != nil {
				result.Message = m[1]
			}
		}

		results = append(results, result)
	}

	return results
}
