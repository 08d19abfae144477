package milestone

import (
	"regexp"

	"github.com/avionworks/podlog-go/internal/family"
)

// Measured-value captures shared by catalogue entries.
var (
	versionValueRe     = regexp.MustCompile(`(?i)firmware version[:\s]+([\w.-]+)`)
	errorCountValueRe  = regexp.MustCompile(`(?i)(\d+)\s+errors?`)
	powerCountValueRe  = regexp.MustCompile(`(?i)power count[:\s]+(\d+)`)
	temperatureValueRe = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*(?:deg(?:rees)?|c\b)`)
)

// typeACatalogue is the imaging-pod boot narrative. The self-test bracket
// milestones come from the self-test section; everything else is read off
// the primary log.
var typeACatalogue = &Catalogue{
	Entries: []Entry{
		{
			Name:         "Firmware Version",
			Source:       SourcePrimary,
			Matcher:      regexp.MustCompile(`(?i)firmware version`),
			ValueCapture: versionValueRe,
		},
		{
			Name:    "Sensor Init",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)sensor init(?:ialization)?(?: complete)?`),
		},
		{
			Name:    "Mission Plan Load",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)mission plan load(?:ed)?`),
		},
		{
			Name:    "EO Imager Ready",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)\beo\b.*imager ready|imager ready.*\beo\b`),
		},
		{
			Name:    "IR Imager Ready",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)\bir\b.*imager ready|imager ready.*\bir\b`),
		},
		{
			Name:    "Self-Test Start",
			Source:  SourceSelfTest,
			Matcher: regexp.MustCompile(`(?i)self-?test start`),
		},
		{
			Name:    "Self-Test Complete",
			Source:  SourceSelfTest,
			Matcher: regexp.MustCompile(`(?i)self-?test complete`),
		},
		{
			Name:         "Validation Check",
			Source:       SourcePrimary,
			Matcher:      regexp.MustCompile(`(?i)validation (?:check )?complete`),
			ValueCapture: errorCountValueRe,
			Rule:         ruleValueZero,
		},
		{
			Name:    "System Ready",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)system ready`),
			Rule:    ruleDerived,
		},
		{
			Name:    "Mission Start",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)mission start`),
		},
	},
	SessionOpen:  regexp.MustCompile(`(?i)mission start`),
	SessionClose: regexp.MustCompile(`(?i)mission (?:end|complete)`),
}

// typeBCatalogue is the sensor-pod boot narrative. The two power-up events
// and the session bracket live on the maintenance channel.
var typeBCatalogue = &Catalogue{
	Entries: []Entry{
		{
			Name:    "Startup",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)power-?on reset|system startup`),
		},
		{
			Name:    "Time Sync",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)time sync(?:hronization)?(?: complete)?`),
		},
		{
			Name:    "Subsystem Comms",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)comm(?:unication)? link established`),
		},
		{
			Name:         "Primary Power Up",
			Source:       SourceMaintenance,
			Matcher:      regexp.MustCompile(`(?i)primary power up`),
			ValueCapture: powerCountValueRe,
			PowerEvent:   true,
		},
		{
			Name:         "Secondary Power Up",
			Source:       SourceMaintenance,
			Matcher:      regexp.MustCompile(`(?i)secondary power up`),
			ValueCapture: powerCountValueRe,
			PowerEvent:   true,
		},
		{
			Name:    "Self-Test Start",
			Source:  SourceSelfTest,
			Matcher: regexp.MustCompile(`(?i)self-?test start`),
		},
		{
			Name:         "Temperature Check",
			Source:       SourcePrimary,
			Matcher:      regexp.MustCompile(`(?i)detector temperature|temperature check`),
			ValueCapture: temperatureValueRe,
			Rule:         ruleValuePositive,
		},
		{
			Name:    "Self-Test Complete",
			Source:  SourceSelfTest,
			Matcher: regexp.MustCompile(`(?i)self-?test complete`),
		},
		{
			Name:    "System Ready",
			Source:  SourcePrimary,
			Matcher: regexp.MustCompile(`(?i)system ready`),
			Rule:    ruleDerived,
		},
		{
			Name:    "Mission Complete",
			Source:  SourceMaintenance,
			Matcher: regexp.MustCompile(`(?i)flight complete|power down`),
		},
	},
	SessionOpen:  regexp.MustCompile(`(?i)flight start`),
	SessionClose: regexp.MustCompile(`(?i)flight complete`),
}

// CatalogueFor returns the milestone catalogue of a log family.
// ok is false for the Unknown family.
func CatalogueFor(fam family.Family) (*Catalogue, bool) {
	switch fam {
	case family.TypeA:
		return typeACatalogue, true
	case family.TypeB:
		return typeBCatalogue, true
	}
	return nil, false
}
