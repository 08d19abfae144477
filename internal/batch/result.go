package batch

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/avionworks/podlog-go/internal/identity"
)

// Status is the outcome of processing one discovered file.
type Status string

// Per-file outcomes.
const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// Result is the finalized record of one discovered source file. Rows are
// appended as files are processed and never mutated after the batch returns.
type Result struct {
	SourcePath string
	DestPath   string
	Identity   identity.Identity
	Status     Status
	Message    string
}

// Counts holds the derived per-status totals of a result set.
type Counts struct {
	Total   int
	Success int
	Warning int
	Error   int
}

// CountResults derives the per-status totals. Counts are always computed
// from the rows, never stored alongside them.
func CountResults(results []Result) Counts {
	c := Counts{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			c.Success++
		case StatusWarning:
			c.Warning++
		case StatusError:
			c.Error++
		}
	}
	return c
}

// WriteCSV writes the result set as delimited text, one row per file.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)

	header := []string{"original_path", "final_path", "sensor_id", "epoch", "mission_id", "status", "message"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.SourcePath,
			r.DestPath,
			r.Identity.SensorID,
			r.Identity.Epoch,
			r.Identity.MissionID,
			string(r.Status),
			r.Message,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
