// Package fleet decides whether a set of processed log files represents one
// sensor unit observed over time or several units compared side by side.
// The decision keys solely on the uniqueness of extracted sensor IDs.
package fleet

import (
	"os"
	"sort"

	"github.com/avionworks/podlog-go/internal/identity"
	"github.com/avionworks/podlog-go/internal/logtable"
)

// Kind is the analysis grouping for a file selection.
type Kind string

// Analysis groupings.
const (
	// SingleUnit: every file belongs to one sensor, longitudinal analysis.
	SingleUnit Kind = "SINGLE_UNIT"

	// MultiUnit: files span several sensors, fleet comparison.
	MultiUnit Kind = "MULTI_UNIT"

	// UnknownMode: no sensor ID could be extracted from any file.
	UnknownMode Kind = "UNKNOWN"
)

// Mode is the classification of one file selection.
type Mode struct {
	Kind Kind

	// UnitIDs is the sorted set of distinct sensor IDs found.
	UnitIDs []string

	// Count is the number of distinct sensor IDs.
	Count int
}

// Classify inspects each filename for a sensor ID and groups the selection.
// Identity comes from the filename pattern; content fallback applies only
// when the file actually exists on disk. Files with no extractable sensor ID
// are dropped from the decision. The result is computed fresh on every call,
// never cached: the selection and the filesystem may both have changed.
func Classify(filenames []string) Mode {
	seen := make(map[string]bool)

	for _, name := range filenames {
		id, ok := identity.ExtractFromFilename(name)
		if !ok || id.SensorID == "" {
			id = extractWithContent(name)
		}
		if id.SensorID == "" {
			continue
		}
		seen[id.SensorID] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	mode := Mode{UnitIDs: ids, Count: len(ids)}
	switch len(ids) {
	case 0:
		mode.Kind = UnknownMode
	case 1:
		mode.Kind = SingleUnit
	default:
		mode.Kind = MultiUnit
	}
	return mode
}

// extractWithContent retries extraction with parsed content, but only for
// files that exist on disk.
func extractWithContent(name string) identity.Identity {
	if _, err := os.Stat(name); err != nil {
		return identity.Identity{}
	}
	bundle, err := logtable.Parse(name)
	if err != nil {
		return identity.Identity{}
	}
	return identity.Extract(name, bundle)
}
