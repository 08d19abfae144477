// Package identity extracts sensor, mission and epoch identity from pod log
// files. Multiple extraction strategies run in fixed priority order; the
// first strategy to produce a value wins per field. A field no strategy can
// fill stays empty: missing identity is renderable state, not an error.
package identity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avionworks/podlog-go/internal/logtable"
)

// maxSensorID is the highest sensor unit number in service. A numeric ID
// above it is treated as suspicious, not invalid.
const maxSensorID = 150

// contentScanLines caps how many leading text rows the regex fallback scans.
const contentScanLines = 200

// epochFormat is the compact date form used in filenames.
const epochFormat = "20060102"

// Identity holds the extracted identity fields. Empty string means missing.
type Identity struct {
	SensorID  string
	MissionID string
	Epoch     string
}

// Complete reports whether all three fields were extracted.
func (id Identity) Complete() bool {
	return id.SensorID != "" && id.MissionID != "" && id.Epoch != ""
}

// Empty reports whether no field was extracted.
func (id Identity) Empty() bool {
	return id.SensorID == "" && id.MissionID == "" && id.Epoch == ""
}

// fill copies values from cand into any still-empty field of id.
func (id Identity) fill(cand Identity) Identity {
	if id.SensorID == "" {
		id.SensorID = cand.SensorID
	}
	if id.MissionID == "" {
		id.MissionID = cand.MissionID
	}
	if id.Epoch == "" {
		id.Epoch = cand.Epoch
	}
	return id
}

// filenameRe matches the strict four-token renamed-file convention:
// <FAMILY>_<sensorID>_<epoch>_<missionID>.<ext>, anchored at start.
// The mission token is last and may itself contain underscores (sanitized
// mission IDs do), so it absorbs the remainder before the extension.
var filenameRe = regexp.MustCompile(`^(?i)(typea|typeb)_([A-Za-z0-9-]+)_([A-Za-z0-9-]+)_([\w-]+)\.\w+$`)

// Attribute-table keys checked, in order, per field.
var (
	sensorKeys  = []string{"Sensor ID", "Sensor", "Unit"}
	missionKeys = []string{"Mission ID", "Mission", "Sortie"}
	epochKeys   = []string{"Flight Date", "Date"}
)

// Regex fallbacks per field for flat text content, tried in order.
var (
	sensorRes = []*regexp.Regexp{
		regexp.MustCompile(`Sensor:\s+(\w+)`),
		regexp.MustCompile(`Sensor ID:\s+(\w+)`),
		regexp.MustCompile(`SensorID:\s+(\w+)`),
	}
	missionRes = []*regexp.Regexp{
		regexp.MustCompile(`Mission:\s+([\w-]+)`),
		regexp.MustCompile(`Mission ID:\s+([\w-]+)`),
		regexp.MustCompile(`MissionID:\s+([\w-]+)`),
	}
	epochRes = []*regexp.Regexp{
		regexp.MustCompile(`Flight Date:\s+(\S+)`),
		regexp.MustCompile(`Date:\s+(\S+)`),
		regexp.MustCompile(`Epoch:\s+(\S+)`),
	}
)

// missionSanitizeRe matches every character not allowed in a filename token.
var missionSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9]`)

// strategy is one named extraction path. Keeping the chain as an ordered
// slice makes the fallback policy auditable and testable per strategy.
type strategy struct {
	name    string
	extract func(filename string, bundle *logtable.Bundle) Identity
}

var strategies = []strategy{
	{name: "filename", extract: fromFilename},
	{name: "attributes", extract: fromAttributes},
	{name: "content", extract: fromContent},
}

// Extract resolves identity for one file. The bundle may be nil when only
// the filename is available; strategies that need content then yield nothing.
func Extract(filename string, bundle *logtable.Bundle) Identity {
	var id Identity
	for _, s := range strategies {
		id = id.fill(s.extract(filename, bundle))
		if id.Complete() {
			break
		}
	}
	return id
}

// ExtractFromFilename applies only the strict filename pattern.
// ok is false when the name does not match the four-token convention.
func ExtractFromFilename(filename string) (Identity, bool) {
	id := fromFilename(filename, nil)
	return id, !id.Empty()
}

// fromFilename parses the strict four-token convention. A name that does not
// match yields nothing for any field.
func fromFilename(filename string, _ *logtable.Bundle) Identity {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	m := filenameRe.FindStringSubmatch(base)
	if m == nil {
		return Identity{}
	}
	return Identity{
		SensorID:  m[2],
		Epoch:     m[3],
		MissionID: m[4],
	}
}

// fromAttributes reads the parser's attribute table by canonical keys.
func fromAttributes(_ string, bundle *logtable.Bundle) Identity {
	if bundle == nil {
		return Identity{}
	}
	var id Identity
	for _, key := range sensorKeys {
		if v, ok := bundle.Attribute(key); ok {
			id.SensorID = v
			break
		}
	}
	for _, key := range missionKeys {
		if v, ok := bundle.Attribute(key); ok {
			id.MissionID = v
			break
		}
	}
	for _, key := range epochKeys {
		if v, ok := bundle.Attribute(key); ok {
			id.Epoch = compactEpoch(v)
			break
		}
	}
	if id.Epoch == "" {
		id.Epoch = epochFromRecords(bundle)
	}
	return id
}

// fromContent scans the first 200 text rows with the per-field regex
// alternatives, first match wins.
func fromContent(_ string, bundle *logtable.Bundle) Identity {
	if bundle == nil || bundle.Records.Len() == 0 {
		return Identity{}
	}

	texts := bundle.Records.Texts()
	if len(texts) > contentScanLines {
		texts = texts[:contentScanLines]
	}
	head := strings.Join(texts, "\n")

	var id Identity
	id.SensorID = firstMatch(sensorRes, head)
	id.MissionID = firstMatch(missionRes, head)
	id.Epoch = compactEpoch(firstMatch(epochRes, head))
	if id.Epoch == "" {
		id.Epoch = epochFromRecords(bundle)
	}
	return id
}

func firstMatch(patterns []*regexp.Regexp, content string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

// epochFromRecords derives the epoch from the earliest record timestamp when
// no direct epoch field exists.
func epochFromRecords(bundle *logtable.Bundle) string {
	if t, ok := bundle.Records.EarliestTime(); ok {
		return t.Format(epochFormat)
	}
	return ""
}

// compactEpoch reduces a date-like value to the compact YYYYMMDD form by
// stripping separators. Values that are not date-like pass through unchanged.
func compactEpoch(v string) string {
	if v == "" {
		return ""
	}
	compact := strings.NewReplacer("-", "", "/", "", ".", "").Replace(v)
	if len(compact) >= 8 && isDigits(compact[:8]) {
		return compact[:8]
	}
	return v
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Suspicious reports whether a sensor ID parses as a number above the known
// unit ceiling. Non-numeric IDs are never suspicious.
func Suspicious(sensorID string) bool {
	n, err := strconv.Atoi(sensorID)
	if err != nil {
		return false
	}
	return n > maxSensorID
}

// SanitizeMissionID replaces every character outside [A-Za-z0-9] with an
// underscore so the value is safe inside a filename token.
func SanitizeMissionID(missionID string) string {
	return missionSanitizeRe.ReplaceAllString(missionID, "_")
}
