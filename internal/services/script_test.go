package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestEstimateDurationMinutes(t *testing.T) {
	tests := []struct {
		name           string
		wordCount      int
		wordsPerMinute int
		want           int
	}{
		{"exact multiple", 450, 150, 3},
		{"rounds up", 451, 150, 4},
		{"single word", 1, 150, 1},
		{"zero words", 0, 150, 0},
		{"negative words", -5, 150, 0},
		{"zero pace falls back to default", 300, 0, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateDurationMinutes(tc.wordCount, tc.wordsPerMinute)
			if got != tc.want {
				t.Errorf("EstimateDurationMinutes(%d, %d) = %d, want %d", tc.wordCount, tc.wordsPerMinute, got, tc.want)
			}
		})
	}
}

func TestExtractSectionHeadings(t *testing.T) {
	script := strings.Join([]string{
		"Introduction (0:00)",
		"Welcome to today's lesson.",
		"Main Content",
		"Point one is about photosynthesis.",
		"  conclusion and recap  ",
		"Summary: what we learned",
	}, "\n")

	got := ExtractSectionHeadings(script)
	want := []string{
		"Introduction (0:00)",
		"Main Content",
		"conclusion and recap",
		"Summary: what we learned",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSectionHeadings = %v, want %v", got, want)
	}
}

func TestExtractSectionHeadings_NoMatches(t *testing.T) {
	got := ExtractSectionHeadings("Just plain narration text.\nNo structure here.")
	if got == nil {
		t.Fatal("ExtractSectionHeadings returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("ExtractSectionHeadings = %v, want empty", got)
	}
}

func TestBuildScriptPrompt(t *testing.T) {
	prompt := buildScriptPrompt("cell biology basics", "Cell Biology", "educational")

	for _, fragment := range []string{
		"Topic: Cell Biology",
		"Content: cell biology basics",
		"Style: educational",
		"Introduction (30 seconds)",
		"Summary and conclusion (30 seconds)",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}
