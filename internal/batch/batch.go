// Package batch discovers raw pod log files, normalizes and renames them
// into the canonical four-token convention, and reports one result row per
// file. A fault in one file never aborts the batch: it becomes an ERROR row
// and processing moves to the next file.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avionworks/podlog-go/internal/family"
	"github.com/avionworks/podlog-go/internal/identity"
	"github.com/avionworks/podlog-go/internal/logtable"
	"github.com/avionworks/podlog-go/internal/textnorm"
)

// originalPrefix marks retained copies of unmodified source files.
const originalPrefix = "original_"

// defaultExtension is used when a source file has no extension.
const defaultExtension = ".log"

// familyPeekLines is how many leading lines feed the family classifier.
const familyPeekLines = 100

// Options configures one batch run.
type Options struct {
	SourceDirs   []string
	OutputDir    string
	Recursive    bool
	Clean        bool
	KeepOriginal bool
}

// Progress is the advisory liveness callback. It is invoked once before
// processing starts (current=0) and once per file as it begins. A nil
// callback changes nothing about the outcome.
type Progress func(current, total int, name string)

// Orchestrator runs batches. Processing is synchronous and file by file; the
// only state shared across files is the append-only result collection and
// the set of destination names already claimed.
type Orchestrator struct {
	log zerolog.Logger
}

// New creates an orchestrator.
func New(log zerolog.Logger) *Orchestrator {
	return &Orchestrator{log: log}
}

// Run discovers candidate files, processes each in isolation, and returns
// one result row per file. It returns a non-nil error only when the output
// directory cannot be created (no file in the batch could be written) or
// the context is cancelled between files; per-file faults are captured as
// ERROR rows instead.
func (o *Orchestrator) Run(ctx context.Context, opts Options, progress Progress) ([]Result, error) {
	var files []string
	for _, dir := range opts.SourceDirs {
		matches, err := Discover([]string{dir}, opts.Recursive)
		if err != nil {
			o.log.Warn().Str("dir", dir).Err(err).Msg("Skipping unreadable source directory")
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		o.log.Info().Msg("No candidate log files found under the source directories")
		return []Result{}, nil
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(files)
	if progress != nil {
		progress(0, total, "")
	}

	results := make([]Result, 0, total)
	destSeen := make(map[string]bool)

	for i, path := range files {
		// Cancellation is coarse-grained: checked between files, never
		// mid-file.
		if err := ctx.Err(); err != nil {
			o.log.Warn().Int("processed", i).Int("total", total).Msg("Batch cancelled")
			return results, err
		}

		if progress != nil {
			progress(i+1, total, path)
		}

		result := o.processFile(path, opts, destSeen)
		results = append(results, result)

		event := o.log.Debug()
		if result.Status == StatusError {
			event = o.log.Warn()
		}
		event.Str("source", path).
			Str("dest", result.DestPath).
			Str("status", string(result.Status)).
			Msg("Processed log file")
	}

	return results, nil
}

// processFile runs the full per-file pipeline and always returns a finalized
// result row. All faults, including panics from malformed input, are
// captured at this boundary with the raw message preserved.
func (o *Orchestrator) processFile(path string, opts Options, destSeen map[string]bool) (result Result) {
	result = Result{SourcePath: path}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("panic: %v", r)
		}
	}()

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}

	lines := splitLines(string(raw))
	if opts.Clean {
		lines = textnorm.Normalize(lines)
	}

	peek := lines
	if len(peek) > familyPeekLines {
		peek = peek[:familyPeekLines]
	}
	fam := family.Classify(path, peek)
	if fam == family.Unknown {
		result.Status = StatusError
		result.Message = fmt.Sprintf("could not determine log family for %s", filepath.Base(path))
		return result
	}

	bundle := logtable.ParseLines(lines)
	result.Identity = identity.Extract(filepath.Base(path), bundle)

	destBase, naming := destinationName(fam, result.Identity, filepath.Base(path))

	destPath, collided := claimDestination(opts.OutputDir, destBase, destSeen)
	result.DestPath = destPath

	var content []byte
	if opts.Clean {
		content = []byte(strings.Join(lines, "\n") + "\n")
	} else {
		content = raw
	}
	if err := os.WriteFile(destPath, content, 0644); err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}

	if opts.KeepOriginal {
		originalPath := filepath.Join(opts.OutputDir, originalPrefix+filepath.Base(path))
		if err := os.WriteFile(originalPath, raw, 0644); err != nil {
			result.Status = StatusError
			result.Message = err.Error()
			return result
		}
	}

	result.Status = StatusSuccess
	result.Message = "renamed"
	switch {
	case naming != "":
		result.Status = StatusWarning
		result.Message = naming
	case collided:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("destination name already taken, wrote %s instead", filepath.Base(destPath))
	}
	return result
}

// destinationName builds the canonical destination filename, degrading to
// fewer tokens when identity fields are missing and to a family-prefixed
// copy of the original name when extraction wholly fails. A suspicious
// sensor ID also forces the fallback name; the returned warning explains why.
func destinationName(fam family.Family, id identity.Identity, origBase string) (name, warning string) {
	ext := filepath.Ext(origBase)
	if ext == "" {
		ext = defaultExtension
	}

	if id.Empty() {
		return string(fam) + "_" + origBase, ""
	}

	if identity.Suspicious(id.SensorID) {
		return string(fam) + "_" + origBase,
			fmt.Sprintf("sensor ID %s exceeds the known unit range, kept original name", id.SensorID)
	}

	tokens := []string{string(fam)}
	if id.SensorID != "" {
		tokens = append(tokens, id.SensorID)
	}
	if id.Epoch != "" {
		tokens = append(tokens, id.Epoch)
	}
	if id.MissionID != "" {
		tokens = append(tokens, identity.SanitizeMissionID(id.MissionID))
	}
	return strings.Join(tokens, "_") + ext, ""
}

// claimDestination reserves a destination path, suffixing deterministically
// (_2, _3, ...) instead of overwriting when the name is already taken by an
// earlier file in this batch or by a file on disk.
func claimDestination(outputDir, base string, destSeen map[string]bool) (path string, collided bool) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(outputDir, base)
	for n := 2; taken(candidate, destSeen); n++ {
		collided = true
		candidate = filepath.Join(outputDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}

	destSeen[candidate] = true
	return candidate, collided
}

func taken(path string, destSeen map[string]bool) bool {
	if destSeen[path] {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// splitLines splits file content on newlines, tolerating CRLF endings.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	// Drop a single trailing empty line from the final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
