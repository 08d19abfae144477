// Package textnorm cleans raw pod log text before structured parsing.
// Firmware consoles wrap long messages onto indented continuation lines and
// crews paste in free-text remarks; normalization merges the wrapped lines
// back together and expands contractions so downstream pattern matching sees
// one canonical form.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

// contractions maps each negative-auxiliary contraction to its expansion.
// Keys are lower-case; matching is case-insensitive on word boundaries.
var contractions = map[string]string{
	"aren't":    "are not",
	"can't":     "cannot",
	"couldn't":  "could not",
	"didn't":    "did not",
	"doesn't":   "does not",
	"don't":     "do not",
	"hadn't":    "had not",
	"hasn't":    "has not",
	"haven't":   "have not",
	"isn't":     "is not",
	"mustn't":   "must not",
	"needn't":   "need not",
	"shan't":    "shall not",
	"shouldn't": "should not",
	"wasn't":    "was not",
	"weren't":   "were not",
	"won't":     "will not",
	"wouldn't":  "would not",
}

// contractionRes holds one compiled pattern per contraction, built once.
var contractionRes = buildContractionPatterns()

type contractionPattern struct {
	re        *regexp.Regexp
	expansion string
}

func buildContractionPatterns() []contractionPattern {
	patterns := make([]contractionPattern, 0, len(contractions))
	for form, expansion := range contractions {
		// \b does not treat ' as a word character, so anchor the trailing
		// "t" explicitly and forbid a leading word character instead.
		re := regexp.MustCompile(`(?i)(^|[^\w])` + regexp.QuoteMeta(form) + `\b`)
		patterns = append(patterns, contractionPattern{re: re, expansion: expansion})
	}
	return patterns
}

// Normalize merges continuation lines and expands contractions.
// An empty input yields an empty output, never an error.
func Normalize(lines []string) []string {
	merged := MergeContinuations(lines)
	out := make([]string, 0, len(merged))
	for _, line := range merged {
		out = append(out, ExpandContractions(line))
	}
	return out
}

// MergeContinuations folds indented continuation lines into the previous
// line. A line continues the current accumulator iff it starts with
// whitespace and an accumulator is open; its trimmed text is appended with a
// single space. Single left-to-right pass, no lookahead.
func MergeContinuations(lines []string) []string {
	var out []string
	var acc string
	accOpen := false

	for _, line := range lines {
		if accOpen && startsWithSpace(line) {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				if acc != "" {
					acc += " "
				}
				acc += trimmed
			}
			continue
		}

		if accOpen && acc != "" {
			out = append(out, acc)
		}
		acc = line
		accOpen = true
	}

	if accOpen && acc != "" {
		out = append(out, acc)
	}

	if out == nil {
		return []string{}
	}
	return out
}

// ExpandContractions rewrites contractions to their expanded form.
// The expansion matches the case of the first letter ("Can't" -> "Cannot").
// Expansion is idempotent: expanded text contains no contraction forms.
func ExpandContractions(line string) string {
	for _, p := range contractionRes {
		line = p.re.ReplaceAllStringFunc(line, func(match string) string {
			// The leading capture may include one non-word character.
			prefix := ""
			rest := match
			if len(rest) > 0 && !isWordByte(rest[0]) {
				prefix = rest[:1]
				rest = rest[1:]
			}
			expansion := p.expansion
			if len(rest) > 0 && unicode.IsUpper(rune(rest[0])) {
				expansion = strings.ToUpper(expansion[:1]) + expansion[1:]
			}
			return prefix + expansion
		})
	}
	return line
}

func startsWithSpace(line string) bool {
	if line == "" {
		return false
	}
	return unicode.IsSpace(rune(line[0]))
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
