// Package report assembles the full structured record for one pod log file:
// family, identity, the milestone sequence with timing metrics, and the
// self-test results. This is the per-file leg of the pipeline that the
// presentation layer consumes.
package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/avionworks/podlog-go/internal/family"
	"github.com/avionworks/podlog-go/internal/identity"
	"github.com/avionworks/podlog-go/internal/logtable"
	"github.com/avionworks/podlog-go/internal/milestone"
	"github.com/avionworks/podlog-go/internal/selftest"
)

// FileReport is the normalized, queryable record of one log file.
type FileReport struct {
	Path       string
	Family     family.Family
	Identity   identity.Identity
	Milestones []milestone.Milestone
	Metrics    milestone.Metrics
	Tests      []selftest.Result
}

// Build parses one log file and derives its structured record.
// A file whose family cannot be determined is refused with a descriptive
// error; incomplete identity is not an error.
func Build(path string) (*FileReport, error) {
	bundle, err := logtable.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	fam := family.Classify(path, bundle.Records.Texts())
	if fam == family.Unknown {
		return nil, fmt.Errorf("cannot determine log family of %s: filename carries no family token and the content matches neither dialect", filepath.Base(path))
	}

	cat, ok := milestone.CatalogueFor(fam)
	if !ok {
		return nil, fmt.Errorf("no milestone catalogue for family %s", fam)
	}

	milestones, metrics := milestone.Sequence(cat, bundle.Records, bundle.Maintenance, bundle.SelfTest)
	tests := selftest.Extract(bundle.SelfTest, "", true)

	return &FileReport{
		Path:       path,
		Family:     fam,
		Identity:   identity.Extract(filepath.Base(path), bundle),
		Milestones: milestones,
		Metrics:    metrics,
		Tests:      tests,
	}, nil
}

// WriteText renders the report as a plain-text summary.
func (r *FileReport) WriteText(w io.Writer) error {
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	p("File:    %s\n", r.Path)
	p("Family:  %s\n", r.Family)
	p("Sensor:  %s\n", orMissing(r.Identity.SensorID))
	p("Mission: %s\n", orMissing(r.Identity.MissionID))
	p("Epoch:   %s\n", orMissing(r.Identity.Epoch))

	p("\nMilestones (%d):\n", len(r.Milestones))
	for _, m := range r.Milestones {
		value := ""
		if m.Value != "" {
			value = fmt.Sprintf(" value=%s", m.Value)
		}
		p("  [%s] %-20s %s%s\n", m.Status, m.Name, m.Timestamp.Format("2006-01-02 15:04:05"), value)
	}

	if r.Metrics.FirstPowerCount != nil {
		p("\nPower counts: first=%d last=%d\n", *r.Metrics.FirstPowerCount, *r.Metrics.LastPowerCount)
	}
	if r.Metrics.ElapsedSeconds != nil {
		p("Elapsed: %.1fs\n", *r.Metrics.ElapsedSeconds)
	}

	p("\nSelf-tests (%d):\n", len(r.Tests))
	for _, t := range r.Tests {
		msg := ""
		if t.Message != "" {
			msg = " - " + t.Message
		}
		p("  [%s] BIT %s %s%s\n", t.Status, t.TestID, t.Name, msg)
	}

	return nil
}

func orMissing(v string) string {
	if v == "" {
		return "(missing)"
	}
	return v
}
