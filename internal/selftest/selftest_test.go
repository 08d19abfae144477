package selftest

import (
	"testing"
	"time"

	"github.com/avionworks/podlog-go/internal/logtable"
)

func section(t *testing.T) *logtable.RecordSet {
	t.Helper()
	base, err := time.Parse("2006-01-02 15:04:05", "2025-01-28 09:00:07")
	if err != nil {
		t.Fatal(err)
	}
	texts := []string{
		"self-test start",
		"BIT 01 IMU gyro check: PASS",
		"BIT 02 detector cooler: FAIL - below operating temperature",
		"BIT 03 datalink loopback: DEGR - intermittent frames",
		"BIT 04 power rail monitor: PASS",
		"status dump with no test identifier: PASS",
		"BIT 05 incomplete row without status marker",
		"self-test complete",
	}
	rs := &logtable.RecordSet{}
	for i, text := range texts {
		rs.Entries = append(rs.Entries, logtable.Entry{
			Time: base.Add(time.Duration(i) * time.Second),
			Text: text,
		})
	}
	return rs
}

func TestExtract_All(t *testing.T) {
	results := Extract(section(t), "", true)

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4: %+v", len(results), results)
	}

	wantIDs := []string{"01", "02", "03", "04"}
	for i, want := range wantIDs {
		if results[i].TestID != want {
			t.Errorf("result[%d].TestID = %q, want %q (input row order)", i, results[i].TestID, want)
		}
	}

	first := results[0]
	if first.Name != "IMU gyro check" {
		t.Errorf("Name = %q, want IMU gyro check", first.Name)
	}
	if first.Status != StatusPass {
		t.Errorf("Status = %s, want PASS", first.Status)
	}
	if first.Message != "" {
		t.Errorf("Message = %q, want empty (no trailing message)", first.Message)
	}

	cooler := results[1]
	if cooler.Status != StatusFail {
		t.Errorf("cooler Status = %s, want FAIL", cooler.Status)
	}
	if cooler.Message != "below operating temperature" {
		t.Errorf("cooler Message = %q", cooler.Message)
	}

	if results[2].Status != StatusDegraded {
		t.Errorf("datalink Status = %s, want DEGR", results[2].Status)
	}
}

func TestExtract_IncompleteRowsDropped(t *testing.T) {
	results := Extract(section(t), "", false)

	for _, r := range results {
		if r.Name == "" || r.TestID == "" || r.Status == "" {
			t.Errorf("incomplete result survived: %+v", r)
		}
	}
	for _, r := range results {
		if r.TestID == "05" {
			t.Errorf("row without status marker was extracted: %+v", r)
		}
	}
}

func TestExtract_StatusFilter(t *testing.T) {
	all := Extract(section(t), "", false)
	failed := Extract(section(t), StatusFail, false)

	if len(failed) != 1 {
		t.Fatalf("got %d FAIL results, want 1: %+v", len(failed), failed)
	}
	for _, r := range failed {
		if r.Status != StatusFail {
			t.Errorf("filtered result has status %s, want FAIL", r.Status)
		}
	}
	if len(failed) >= len(all) {
		t.Errorf("filtered set (%d) not a strict subset of unfiltered (%d)", len(failed), len(all))
	}
}

func TestExtract_MessageExcluded(t *testing.T) {
	results := Extract(section(t), StatusFail, false)
	if len(results) != 1 {
		t.Fatal("fixture changed")
	}
	if results[0].Message != "" {
		t.Errorf("Message = %q, want empty when includeMessage is false", results[0].Message)
	}
}

func TestExtract_EmptySection(t *testing.T) {
	if got := Extract(nil, "", true); got != nil {
		t.Errorf("Extract(nil) = %+v, want nil", got)
	}
	if got := Extract(&logtable.RecordSet{}, "", true); got != nil {
		t.Errorf("Extract(empty) = %+v, want nil", got)
	}
}

func TestExtract_Timestamps(t *testing.T) {
	results := Extract(section(t), "", false)
	for i := 1; i < len(results); i++ {
		if results[i].Timestamp.Before(results[i-1].Timestamp) {
			t.Errorf("results out of input order at %d", i)
		}
	}
}
