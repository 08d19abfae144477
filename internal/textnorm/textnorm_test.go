package textnorm

import (
	"reflect"
	"strings"
	"testing"
)

func TestMergeContinuations(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "empty input",
			lines: []string{},
			want:  []string{},
		},
		{
			name:  "no continuations",
			lines: []string{"Line A", "Line B"},
			want:  []string{"Line A", "Line B"},
		},
		{
			name:  "single continuation",
			lines: []string{"Line A", "  cont of A", "Line B"},
			want:  []string{"Line A cont of A", "Line B"},
		},
		{
			name:  "multiple continuations of one line",
			lines: []string{"Line A", "  cont 1", "\tcont 2", "Line B"},
			want:  []string{"Line A cont 1 cont 2", "Line B"},
		},
		{
			name:  "continuation at end of input is flushed",
			lines: []string{"Line A", "  tail"},
			want:  []string{"Line A tail"},
		},
		{
			name:  "leading continuation with no open accumulator",
			lines: []string{"  floating", "Line B"},
			want:  []string{"  floating", "Line B"},
		},
		{
			name:  "blank lines are dropped",
			lines: []string{"Line A", "", "Line B"},
			want:  []string{"Line A", "Line B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeContinuations(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeContinuations() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeContinuations_NeverDropsNonContinuationLines(t *testing.T) {
	lines := []string{"alpha", "beta", "gamma", "delta"}
	got := MergeContinuations(lines)
	if !reflect.DeepEqual(got, lines) {
		t.Errorf("MergeContinuations() = %q, want input unchanged %q", got, lines)
	}
}

func TestExpandContractions(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "simple negative auxiliary",
			line: "sensor didn't respond",
			want: "sensor did not respond",
		},
		{
			name: "cannot special case",
			line: "can't lock GPS",
			want: "cannot lock GPS",
		},
		{
			name: "will not special case",
			line: "heater won't engage",
			want: "heater will not engage",
		},
		{
			name: "case preserved on first letter",
			line: "Can't lock GPS",
			want: "Cannot lock GPS",
		},
		{
			name: "mixed case matched",
			line: "DOESN'T apply",
			want: "Does not apply",
		},
		{
			name: "multiple contractions in one line",
			line: "isn't ready and hasn't synced",
			want: "is not ready and has not synced",
		},
		{
			name: "word boundary respected",
			line: "the token xcan't is not a contraction start",
			want: "the token xcan't is not a contraction start",
		},
		{
			name: "no contractions",
			line: "system ready",
			want: "system ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandContractions(tt.line)
			if got != tt.want {
				t.Errorf("ExpandContractions(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestExpandContractions_Idempotent(t *testing.T) {
	inputs := []string{
		"sensor didn't respond and won't retry",
		"can't shan't mustn't",
		"already expanded: did not respond",
		"",
	}

	for _, in := range inputs {
		once := ExpandContractions(in)
		twice := ExpandContractions(once)
		if once != twice {
			t.Errorf("expansion not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestExpandContractions_CoversAllForms(t *testing.T) {
	for form := range contractions {
		expanded := ExpandContractions("it " + form + " work")
		if strings.Contains(expanded, form) {
			t.Errorf("contraction %q survived expansion: %q", form, expanded)
		}
	}
}

func TestNormalize(t *testing.T) {
	lines := []string{
		"GPS init failed, receiver",
		"  didn't acknowledge",
		"System ready",
	}
	want := []string{
		"GPS init failed, receiver did not acknowledge",
		"System ready",
	}

	got := Normalize(lines)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	got := Normalize(nil)
	if len(got) != 0 {
		t.Errorf("Normalize(nil) = %q, want empty", got)
	}
}
