package audio

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSelectFull(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"short", "A short narration.", true},
		{"atLimit", strings.Repeat("a", fullCharLimit), true},
		{"overLimit", strings.Repeat("a", fullCharLimit+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectFull(tt.text)
			if ok != tt.want {
				t.Fatalf("selectFull() ok = %v, want %v", ok, tt.want)
			}
			if ok && got != tt.text {
				t.Error("selectFull() should return the text unchanged")
			}
		})
	}
}

func TestSelectSubstantial(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantCount int
	}{
		{"shortText", sentences(20, 40), false, 0},
		{"scalesToFortyPercent", sentences(25, 60), true, 10},
		{"clampsToMinimum", sentences(10, 120), true, 8},
		{"clampsToMaximum", sentences(40, 60), true, 12},
		{"fewerSentencesThanMinimum", sentences(6, 200), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectSubstantial(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("selectSubstantial() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if n := strings.Count(got, "Sentence "); n != tt.wantCount {
				t.Errorf("selectSubstantial() kept %d sentences, want %d", n, tt.wantCount)
			}
			if !strings.HasPrefix(tt.text, got) || !strings.HasSuffix(got, ".") {
				t.Errorf("selectSubstantial() = %q, want a whole-sentence prefix", got)
			}
		})
	}
}

func TestSelectExcerpt(t *testing.T) {
	first := sentences(2, 80)
	second := sentences(2, 80)
	long := sentences(12, 60)

	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "twoParagraphs",
			text:   first + "\n\n" + second + "\n\n" + long,
			want:   first + "\n\n" + second,
			wantOK: true,
		},
		{
			name:   "firstParagraphOnly",
			text:   first + "\n\n" + long + "\n\n" + second,
			want:   first,
			wantOK: true,
		},
		{
			name:   "singleParagraphEqualsText",
			text:   first,
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := selectExcerpt(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("selectExcerpt() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("selectExcerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectExcerptTrimsToSentence(t *testing.T) {
	text := sentences(30, 70)

	got, ok := selectExcerpt(text)
	if !ok {
		t.Fatal("selectExcerpt() ok = false, want true")
	}
	if utf8.RuneCountInString(got) > excerptCharLimit {
		t.Errorf("excerpt has %d chars, want at most %d", utf8.RuneCountInString(got), excerptCharLimit)
	}
	if !strings.HasSuffix(got, ".") || !strings.HasPrefix(text, got) {
		t.Errorf("selectExcerpt() = %q, want a sentence-aligned prefix", got)
	}
	if n := strings.Count(got, "Sentence "); n != 5 {
		t.Errorf("excerpt has %d sentences, want 5", n)
	}
}

func TestSelectExcerptWithoutSentenceBoundary(t *testing.T) {
	text := strings.Repeat("word ", 200)

	got, ok := selectExcerpt(text)
	if !ok {
		t.Fatal("selectExcerpt() ok = false, want true")
	}
	if len(got) > excerptCharLimit || strings.HasSuffix(got, "wor") {
		t.Errorf("selectExcerpt() = %q, want cut at a word boundary", got)
	}
}
