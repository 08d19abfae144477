package milestone

import (
	"testing"
	"time"

	"github.com/avionworks/podlog-go/internal/family"
	"github.com/avionworks/podlog-go/internal/logtable"
)

func entry(t *testing.T, ts, text string) logtable.Entry {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", ts, err)
	}
	return logtable.Entry{Time: parsed, Text: text}
}

func typeBFixtures(t *testing.T) (primary, maintenance, tests *logtable.RecordSet) {
	t.Helper()
	primary = &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:00", "power-on reset complete"),
		entry(t, "2025-01-28 09:00:02", "time synchronization complete"),
		entry(t, "2025-01-28 09:00:04", "comm link established on channel 2"),
		entry(t, "2025-01-28 09:00:09", "detector temperature 24.5 deg"),
		entry(t, "2025-01-28 09:00:12", "system ready"),
		entry(t, "2025-01-28 10:30:00", "telemetry downlink idle"),
	}}
	maintenance = &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:05", "primary power up, power count: 17"),
		entry(t, "2025-01-28 09:00:06", "secondary power up, power count: 18"),
		entry(t, "2025-01-28 09:05:00", "flight start"),
		entry(t, "2025-01-28 10:05:00", "flight complete"),
	}}
	tests = &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:07", "self-test start"),
		entry(t, "2025-01-28 09:00:08", "self-test complete"),
	}}
	return primary, maintenance, tests
}

func findMilestone(ms []Milestone, name string) (Milestone, bool) {
	for _, m := range ms {
		if m.Name == name {
			return m, true
		}
	}
	return Milestone{}, false
}

func TestSequence_TypeB_FullBoot(t *testing.T) {
	cat, ok := CatalogueFor(family.TypeB)
	if !ok {
		t.Fatal("no TypeB catalogue")
	}
	primary, maintenance, tests := typeBFixtures(t)

	ms, metrics := Sequence(cat, primary, maintenance, tests)

	wantNames := []string{
		"Startup", "Time Sync", "Subsystem Comms",
		"Primary Power Up", "Secondary Power Up",
		"Self-Test Start", "Temperature Check", "Self-Test Complete",
		"System Ready", "Mission Complete",
	}
	if len(ms) != len(wantNames) {
		t.Fatalf("got %d milestones, want %d: %+v", len(ms), len(wantNames), ms)
	}
	for i, want := range wantNames {
		if ms[i].Name != want {
			t.Errorf("milestone[%d] = %q, want %q (catalogue order)", i, ms[i].Name, want)
		}
	}

	for _, m := range ms {
		if m.Status != StatusPass {
			t.Errorf("milestone %s status = %s, want PASS", m.Name, m.Status)
		}
	}

	if m, _ := findMilestone(ms, "Temperature Check"); m.Value != "24.5" {
		t.Errorf("Temperature Check value = %q, want 24.5", m.Value)
	}

	if metrics.FirstPowerCount == nil || *metrics.FirstPowerCount != 17 {
		t.Errorf("FirstPowerCount = %v, want 17", metrics.FirstPowerCount)
	}
	if metrics.LastPowerCount == nil || *metrics.LastPowerCount != 18 {
		t.Errorf("LastPowerCount = %v, want 18", metrics.LastPowerCount)
	}
	if metrics.ElapsedSeconds == nil || *metrics.ElapsedSeconds != 3600 {
		t.Errorf("ElapsedSeconds = %v, want 3600", metrics.ElapsedSeconds)
	}
}

func TestSequence_MissingMarkersAreOmitted(t *testing.T) {
	cat, _ := CatalogueFor(family.TypeB)
	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:00", "power-on reset complete"),
		entry(t, "2025-01-28 09:00:12", "system ready"),
	}}

	ms, _ := Sequence(cat, primary, nil, nil)

	if len(ms) != 2 {
		t.Fatalf("got %d milestones, want 2: %+v", len(ms), ms)
	}
	// Absence of earlier milestones does not count as failure.
	ready := ms[len(ms)-1]
	if ready.Name != "System Ready" || ready.Status != StatusPass {
		t.Errorf("terminal milestone = %+v, want System Ready PASS", ready)
	}
}

func TestSequence_DerivedStatusFailsOnEarlierFailure(t *testing.T) {
	cat, _ := CatalogueFor(family.TypeB)
	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:00", "power-on reset complete"),
		entry(t, "2025-01-28 09:00:09", "detector temperature -3.0 deg"),
		entry(t, "2025-01-28 09:00:12", "system ready"),
	}}

	ms, _ := Sequence(cat, primary, nil, nil)

	temp, found := findMilestone(ms, "Temperature Check")
	if !found || temp.Status != StatusFail {
		t.Fatalf("Temperature Check = %+v/%v, want FAIL", temp, found)
	}
	ready, found := findMilestone(ms, "System Ready")
	if !found || ready.Status != StatusFail {
		t.Errorf("System Ready = %+v/%v, want FAIL (an earlier milestone failed)", ready, found)
	}
}

func TestSequence_ValueMissingYieldsWarn(t *testing.T) {
	cat, _ := CatalogueFor(family.TypeB)
	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:09", "temperature check commenced"),
		entry(t, "2025-01-28 09:00:12", "system ready"),
	}}

	ms, _ := Sequence(cat, primary, nil, nil)

	temp, found := findMilestone(ms, "Temperature Check")
	if !found || temp.Status != StatusWarn {
		t.Fatalf("Temperature Check = %+v/%v, want WARN (marker without value)", temp, found)
	}
	ready, _ := findMilestone(ms, "System Ready")
	if ready.Status != StatusWarn {
		t.Errorf("System Ready = %s, want WARN (warnings but no failures)", ready.Status)
	}
}

func TestSequence_FirstChronologicalMatchWins(t *testing.T) {
	cat, _ := CatalogueFor(family.TypeB)
	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:00", "system startup"),
		entry(t, "2025-01-28 09:30:00", "system startup after reset"),
	}}

	ms, _ := Sequence(cat, primary, nil, nil)

	startup, found := findMilestone(ms, "Startup")
	if !found {
		t.Fatal("Startup not captured")
	}
	if startup.Timestamp.Minute() != 0 {
		t.Errorf("Startup timestamp = %v, want the first match at 09:00", startup.Timestamp)
	}
	if startup2, _ := findMilestone(ms[1:], "Startup"); startup2.Name == "Startup" {
		t.Error("Startup captured twice, want at most once per name")
	}
}

func TestSequence_ElapsedFallsBackToPrimaryTail(t *testing.T) {
	cat, _ := CatalogueFor(family.TypeB)
	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:00:00", "power-on reset complete"),
		entry(t, "2025-01-28 09:20:00", "last telemetry row"),
	}}
	maintenance := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-01-28 09:10:00", "flight start"),
	}}

	_, metrics := Sequence(cat, primary, maintenance, nil)

	if metrics.ElapsedSeconds == nil {
		t.Fatal("ElapsedSeconds = nil, want fallback to last primary timestamp")
	}
	if *metrics.ElapsedSeconds != 600 {
		t.Errorf("ElapsedSeconds = %v, want 600", *metrics.ElapsedSeconds)
	}
}

func TestSequence_TypeA_Catalogue(t *testing.T) {
	cat, ok := CatalogueFor(family.TypeA)
	if !ok {
		t.Fatal("no TypeA catalogue")
	}

	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-02-01 08:00:00", "firmware version: 4.2.1 detected"),
		entry(t, "2025-02-01 08:00:01", "sensor initialization complete"),
		entry(t, "2025-02-01 08:00:02", "mission plan loaded from store"),
		entry(t, "2025-02-01 08:00:03", "EO imager ready"),
		entry(t, "2025-02-01 08:00:04", "IR imager ready"),
		entry(t, "2025-02-01 08:00:07", "validation check complete, 0 errors"),
		entry(t, "2025-02-01 08:00:08", "system ready"),
		entry(t, "2025-02-01 08:00:10", "mission start"),
	}}
	tests := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-02-01 08:00:05", "self-test start"),
		entry(t, "2025-02-01 08:00:06", "self-test complete"),
	}}

	ms, _ := Sequence(cat, primary, nil, tests)

	if len(ms) != 10 {
		t.Fatalf("got %d milestones, want the full 10-entry catalogue: %+v", len(ms), ms)
	}

	version, _ := findMilestone(ms, "Firmware Version")
	if version.Value != "4.2.1" {
		t.Errorf("Firmware Version value = %q, want 4.2.1", version.Value)
	}

	validation, _ := findMilestone(ms, "Validation Check")
	if validation.Status != StatusPass || validation.Value != "0" {
		t.Errorf("Validation Check = %+v, want PASS with value 0", validation)
	}

	ready, _ := findMilestone(ms, "System Ready")
	if ready.Status != StatusPass {
		t.Errorf("System Ready = %s, want PASS", ready.Status)
	}
}

func TestSequence_ValidationErrorsFail(t *testing.T) {
	cat, _ := CatalogueFor(family.TypeA)
	primary := &logtable.RecordSet{Entries: []logtable.Entry{
		entry(t, "2025-02-01 08:00:07", "validation check complete, 3 errors"),
		entry(t, "2025-02-01 08:00:08", "system ready"),
	}}

	ms, _ := Sequence(cat, primary, nil, nil)

	validation, found := findMilestone(ms, "Validation Check")
	if !found || validation.Status != StatusFail {
		t.Fatalf("Validation Check = %+v/%v, want FAIL for nonzero error count", validation, found)
	}
	ready, _ := findMilestone(ms, "System Ready")
	if ready.Status != StatusFail {
		t.Errorf("System Ready = %s, want FAIL", ready.Status)
	}
}

func TestCatalogueFor_Unknown(t *testing.T) {
	if _, ok := CatalogueFor(family.Unknown); ok {
		t.Error("CatalogueFor(Unknown) ok = true, want false")
	}
}
