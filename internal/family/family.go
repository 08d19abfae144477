// Package family classifies pod log files into one of the two firmware log
// dialects. Classification is total: a file that matches neither dialect is
// Unknown, never an error.
package family

import (
	"path/filepath"
	"strings"
)

// Family identifies a pod firmware log dialect.
type Family string

// Supported log families.
const (
	// TypeA is the imaging-pod firmware dialect ("info" logs).
	TypeA Family = "TypeA"

	// TypeB is the sensor-pod firmware dialect ("error" logs).
	TypeB Family = "TypeB"

	// Unknown means neither dialect could be determined.
	Unknown Family = "Unknown"
)

// Filename marker tokens, checked against the lower-cased base name.
const (
	typeAToken = "typea"
	typeBToken = "typeb"

	// Raw firmware dumps carry the generic log-kind token instead of the
	// family name.
	typeAKindToken = "info"
	typeBKindToken = "error"
)

// contentPeekLines is how many leading lines the content fallback scans.
const contentPeekLines = 100

// Classify determines the log family of a file, filename first, then content.
//
// Step 1 inspects the lower-cased base filename for a family marker token.
// Step 2, only when step 1 is inconclusive and a content peek is available,
// scans the first 100 lines for family name literals, then for the generic
// header phrases ("info log" vs "error log").
func Classify(filename string, contentPeek []string) Family {
	if fam := classifyFilename(filename); fam != Unknown {
		return fam
	}
	if len(contentPeek) > 0 {
		return classifyContent(contentPeek)
	}
	return Unknown
}

func classifyFilename(filename string) Family {
	base := strings.ToLower(filepath.Base(filename))

	switch {
	case strings.Contains(base, typeAToken):
		return TypeA
	case strings.Contains(base, typeBToken):
		return TypeB
	case strings.Contains(base, typeAKindToken):
		return TypeA
	case strings.Contains(base, typeBKindToken):
		return TypeB
	}
	return Unknown
}

func classifyContent(peek []string) Family {
	if len(peek) > contentPeekLines {
		peek = peek[:contentPeekLines]
	}
	head := strings.ToLower(strings.Join(peek, "\n"))

	// Family name literals first, generic header phrases second.
	switch {
	case strings.Contains(head, "type a"), strings.Contains(head, typeAToken):
		return TypeA
	case strings.Contains(head, "type b"), strings.Contains(head, typeBToken):
		return TypeB
	case strings.Contains(head, "info log"):
		return TypeA
	case strings.Contains(head, "error log"):
		return TypeB
	}
	return Unknown
}

// MatchesDiscoveryPattern reports whether a raw (not yet renamed) filename
// matches the family's discovery convention: TypeA files start with the
// "info" token and end in the log extension; TypeB files contain the "error"
// token anywhere. Comparison is case-insensitive.
func MatchesDiscoveryPattern(filename string, fam Family) bool {
	base := strings.ToLower(filepath.Base(filename))
	switch fam {
	case TypeA:
		return strings.HasPrefix(base, typeAKindToken) && strings.HasSuffix(base, ".log")
	case TypeB:
		return strings.Contains(base, typeBKindToken)
	}
	return false
}
