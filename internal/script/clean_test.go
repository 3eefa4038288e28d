package script

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "emphasisMarkers",
			raw:  "This is **really** *big* and __bold__ with `code`.",
			want: "This is really big and bold with code.",
		},
		{
			name: "stageDirections",
			raw:  "[Intro music plays] Welcome back. [pause] Let's begin.",
			want: "Welcome back. Let's begin.",
		},
		{
			name: "parentheticalAsides",
			raw:  "Stars (like our Sun) burn hydrogen (mostly).",
			want: "Stars burn hydrogen.",
		},
		{
			name: "speakerLabels",
			raw:  "Narrator: Hello there.\nHOST: Another line.\n**Speaker 2:** Final line.",
			want: "Hello there. Another line. Final line.",
		},
		{
			name: "headingsAndBullets",
			raw:  "## The Hook\n- First point\n- Second point",
			want: "The Hook First point Second point",
		},
		{
			name: "collapsesWhitespaceKeepsParagraphs",
			raw:  "First   line\ncontinues here.\n\n\n  Second    paragraph.  ",
			want: "First line continues here.\n\nSecond paragraph.",
		},
		{
			name: "emptyAfterCleanup",
			raw:  "[music] (silence)",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDurationClass(t *testing.T) {
	tests := []struct {
		in      string
		want    DurationClass
		wantErr bool
	}{
		{in: "", want: Medium},
		{in: "short", want: Short},
		{in: " LONG ", want: Long},
		{in: "medium", want: Medium},
		{in: "epic", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDurationClass(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDurationClass(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDurationClass(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationClassTargets(t *testing.T) {
	tests := []struct {
		class    DurationClass
		target   int
		min, max int
	}{
		{Short, 130, 117, 143},
		{Medium, 160, 144, 176},
		{Long, 190, 171, 209},
		{DurationClass("unknown"), 160, 144, 176},
	}

	for _, tt := range tests {
		if got := tt.class.TargetWords(); got != tt.target {
			t.Errorf("%s.TargetWords() = %d, want %d", tt.class, got, tt.target)
		}
		lo, hi := tt.class.Bounds()
		if lo != tt.min || hi != tt.max {
			t.Errorf("%s.Bounds() = %d,%d, want %d,%d", tt.class, lo, hi, tt.min, tt.max)
		}
	}
}

func TestEstimateSeconds(t *testing.T) {
	tests := map[int]int{0: 0, 150: 60, 130: 52, 160: 64, 190: 76}
	for words, want := range tests {
		if got := EstimateSeconds(words); got != want {
			t.Errorf("EstimateSeconds(%d) = %d, want %d", words, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Cause
	}{
		{nil, CauseOther},
		{errors.New("empty response"), CauseOther},
		{errors.New("model is over capacity"), CauseCapacity},
		{errors.New("quota_exceeded for key"), CauseCapacity},
		{errors.New("request timed out"), CauseTimeout},
		{fmt.Errorf("send: %w", context.DeadlineExceeded), CauseTimeout},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
