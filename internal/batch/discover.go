package batch

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/avionworks/podlog-go/internal/family"
)

// Discover globs candidate log files under each source directory. The result
// is the union across directories with discovery order preserved; the same
// path reachable from two roots is intentionally not deduplicated.
func Discover(sourceDirs []string, recursive bool) ([]string, error) {
	var found []string

	for _, dir := range sourceDirs {
		pattern := filepath.Join(dir, "*")
		if recursive {
			pattern = filepath.Join(dir, "**", "*")
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s: %w", dir, err)
		}

		for _, match := range matches {
			if matchesAnyFamily(match) {
				found = append(found, match)
			}
		}
	}

	return found, nil
}

// matchesAnyFamily applies the family-specific filename conventions.
func matchesAnyFamily(path string) bool {
	return family.MatchesDiscoveryPattern(path, family.TypeA) ||
		family.MatchesDiscoveryPattern(path, family.TypeB)
}
