package logtable

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// timeFormatDateTime is the primary timestamp format in pod logs.
const timeFormatDateTime = "2006-01-02 15:04:05"

// timeFormatDateTimeMillis is the primary format with milliseconds.
const timeFormatDateTimeMillis = "2006-01-02 15:04:05.000"

// timeFormatClock is the secondary clock format (time of day only).
const timeFormatClock = "15:04:05"

// maintenanceComponent is the subsystem channel maintenance rows are tagged
// with in both log families.
const maintenanceComponent = "MAINT"

var (
	// attributeRe matches header attribute lines: "# Key: Value".
	attributeRe = regexp.MustCompile(`^#\s*([A-Za-z][\w ]*?):\s*(.+)$`)

	// entryRe matches one structured row:
	//   <time>[ / <alt clock>] | <function> | <component> | <text>
	entryRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{3})?)(?:\s*/\s*(\d{2}:\d{2}:\d{2}))?\s*\|\s*([^|]*?)\s*\|\s*([^|]*?)\s*\|\s*(.*)$`)

	selfTestOpenRe  = regexp.MustCompile(`(?i)self-?test\s+start`)
	selfTestCloseRe = regexp.MustCompile(`(?i)self-?test\s+complete`)
)

// Parse reads a pod log file and returns the structured bundle.
func Parse(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	return ParseLines(lines), nil
}

// ParseLines parses already-read log lines into a bundle. Lines that match
// neither the attribute form nor the entry form are skipped; a file with no
// structured rows yields an empty (but valid) bundle.
func ParseLines(lines []string) *Bundle {
	bundle := &Bundle{
		Records:    &RecordSet{},
		Attributes: make(map[string]string),
	}

	for _, line := range lines {
		if m := attributeRe.FindStringSubmatch(line); m != nil {
			key := strings.TrimSpace(m[1])
			if _, exists := bundle.Attributes[key]; !exists {
				bundle.Attributes[key] = strings.TrimSpace(m[2])
			}
			continue
		}

		entry, ok := parseEntry(line)
		if !ok {
			continue
		}
		bundle.Records.Entries = append(bundle.Records.Entries, entry)
	}

	bundle.SelfTest = sliceSelfTest(bundle.Records)
	bundle.Maintenance = sliceMaintenance(bundle.Records)

	return bundle
}

// parseEntry parses a single structured row.
func parseEntry(line string) (Entry, bool) {
	m := entryRe.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}

	ts, err := parseTimestamp(m[1])
	if err != nil {
		return Entry{}, false
	}

	entry := Entry{
		Time:      ts,
		Function:  m[3],
		Component: m[4],
		Text:      m[5],
	}

	if m[2] != "" {
		if alt, err := time.Parse(timeFormatClock, m[2]); err == nil {
			// Anchor the clock-only reading to the primary timestamp's date.
			anchored := time.Date(ts.Year(), ts.Month(), ts.Day(),
				alt.Hour(), alt.Minute(), alt.Second(), 0, ts.Location())
			entry.TimeAlt = &anchored
		}
	}

	return entry, true
}

func parseTimestamp(s string) (time.Time, error) {
	if strings.Contains(s, ".") {
		return time.Parse(timeFormatDateTimeMillis, s)
	}
	return time.Parse(timeFormatDateTime, s)
}

// sliceSelfTest extracts the entries between the self-test start and complete
// markers, inclusive. When the closing marker is missing the section runs to
// the end of the log. Returns nil when no self-test section exists.
func sliceSelfTest(records *RecordSet) *RecordSet {
	start := -1
	for i, e := range records.Entries {
		if selfTestOpenRe.MatchString(e.Text) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	end := len(records.Entries)
	for i := start; i < len(records.Entries); i++ {
		if selfTestCloseRe.MatchString(records.Entries[i].Text) {
			end = i + 1
			break
		}
	}

	section := make([]Entry, end-start)
	copy(section, records.Entries[start:end])
	return &RecordSet{Entries: section}
}

// sliceMaintenance extracts the rows on the maintenance channel.
// Returns nil when the log carries no maintenance rows.
func sliceMaintenance(records *RecordSet) *RecordSet {
	var section []Entry
	for _, e := range records.Entries {
		if strings.EqualFold(e.Component, maintenanceComponent) {
			section = append(section, e)
		}
	}
	if section == nil {
		return nil
	}
	return &RecordSet{Entries: section}
}
