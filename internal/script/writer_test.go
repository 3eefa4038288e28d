package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"topicast/internal/llm"
	"topicast/pkg/prompts"
	"topicast/pkg/retry"
)

const tenWordSentence = "Black holes bend light and time in strange ways today."

type fakeResponse struct {
	text string
	err  error
}

type fakeGenerator struct {
	responses    []fakeResponse
	calls        int
	lastMessages []llm.Message
	lastOpts     llm.Options
}

func (f *fakeGenerator) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.lastMessages = messages
	f.lastOpts = opts
	r := f.responses[min(f.calls, len(f.responses)-1)]
	f.calls++
	return r.text, r.err
}

func narration(words int) string {
	sentences := make([]string, 0, words/10)
	for i := 0; i < words/10; i++ {
		sentences = append(sentences, tenWordSentence)
	}
	return strings.Join(sentences, " ")
}

func newTestWriter(t *testing.T, gen llm.TextGenerator, delays *[]time.Duration) *Writer {
	t.Helper()
	p, err := prompts.Default()
	if err != nil {
		t.Fatalf("prompts.Default() error = %v", err)
	}
	return NewWriter(gen, p, WithSleeper(func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}))
}

func TestWriteShortScript(t *testing.T) {
	raw := "Narrator: **" + narration(60) + "**\n\n" + narration(70) + " (pause)"
	gen := &fakeGenerator{responses: []fakeResponse{{text: raw}}}
	w := newTestWriter(t, gen, nil)

	s, err := w.Write(context.Background(), "black holes", Short)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if s.WordCount < 120 || s.WordCount > 140 {
		t.Errorf("WordCount = %d, want 120-140", s.WordCount)
	}
	if s.TargetWordCount != 130 {
		t.Errorf("TargetWordCount = %d, want 130", s.TargetWordCount)
	}
	if s.Text != raw {
		t.Error("Text should keep the raw model output")
	}
	for _, marker := range []string{"Narrator:", "**", "(pause)"} {
		if strings.Contains(s.Cleaned, marker) {
			t.Errorf("Cleaned still contains %q", marker)
		}
	}
	if !strings.Contains(s.Cleaned, "\n\n") {
		t.Error("Cleaned should keep the paragraph break")
	}
}

func TestWriteSendsPromptAndBudget(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{{text: narration(190)}}}
	w := newTestWriter(t, gen, nil)

	if _, err := w.Write(context.Background(), "volcanoes", Long); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if gen.lastOpts.MaxTokens != 190*tokensPerWord {
		t.Errorf("MaxTokens = %d, want %d", gen.lastOpts.MaxTokens, 190*tokensPerWord)
	}
	if len(gen.lastMessages) != 2 || gen.lastMessages[0].Role != llm.RoleSystem {
		t.Fatalf("messages = %+v, want system then user", gen.lastMessages)
	}
	user := gen.lastMessages[1].Content
	for _, want := range []string{"volcanoes", "190 words", "between 171 and 209", "about 19 words", "about 152 words"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestWriteRetriesWithBackoff(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{
		{text: ""},
		{err: errors.New("connection reset")},
		{text: narration(160)},
	}}
	var delays []time.Duration
	w := newTestWriter(t, gen, &delays)

	s, err := w.Write(context.Background(), "tides", Medium)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if s.WordCount != 160 {
		t.Errorf("WordCount = %d, want 160", s.WordCount)
	}
	if gen.calls != 3 {
		t.Errorf("calls = %d, want 3", gen.calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if fmt.Sprint(delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v, want %v", delays, want)
	}
}

func TestWriteFailures(t *testing.T) {
	tests := []struct {
		name      string
		responses []fakeResponse
		wantCause Cause
	}{
		{
			name:      "emptyEveryAttempt",
			responses: []fakeResponse{{text: ""}},
			wantCause: CauseOther,
		},
		{
			name:      "rateLimited",
			responses: []fakeResponse{{err: errors.New("generate: 429 rate limit reached")}},
			wantCause: CauseCapacity,
		},
		{
			name:      "deadline",
			responses: []fakeResponse{{err: fmt.Errorf("generate: %w", context.DeadlineExceeded)}},
			wantCause: CauseTimeout,
		},
		{
			name:      "tooShort",
			responses: []fakeResponse{{text: narration(20)}},
			wantCause: CauseOther,
		},
		{
			name:      "underTarget",
			responses: []fakeResponse{{text: narration(100)}},
			wantCause: CauseOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{responses: tt.responses}
			w := newTestWriter(t, gen, nil)

			s, err := w.Write(context.Background(), "black holes", Short)
			if s != nil {
				t.Errorf("Write() script = %+v, want nil", s)
			}

			var failure *GenerationFailure
			if !errors.As(err, &failure) {
				t.Fatalf("Write() error = %v, want *GenerationFailure", err)
			}
			if failure.Attempts != 3 {
				t.Errorf("Attempts = %d, want 3", failure.Attempts)
			}
			if failure.Cause != tt.wantCause {
				t.Errorf("Cause = %q, want %q", failure.Cause, tt.wantCause)
			}
			if gen.calls != 3 {
				t.Errorf("calls = %d, want 3", gen.calls)
			}
		})
	}
}

func TestWriteEmptyTopic(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{{text: narration(130)}}}
	w := newTestWriter(t, gen, nil)

	_, err := w.Write(context.Background(), "   ", Short)
	var failure *GenerationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Write() error = %v, want *GenerationFailure", err)
	}
	if gen.calls != 0 {
		t.Errorf("calls = %d, want 0", gen.calls)
	}
}

func TestWriteTrimsOverlongScript(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{{text: narration(300)}}}
	w := newTestWriter(t, gen, nil)

	s, err := w.Write(context.Background(), "black holes", Short)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if s.WordCount > 149 {
		t.Errorf("WordCount = %d, want at most 149", s.WordCount)
	}
	if s.WordCount < 111 {
		t.Errorf("WordCount = %d, want at least 111", s.WordCount)
	}
	if !strings.HasSuffix(s.Text, ".") {
		t.Errorf("Text should end on a sentence boundary: %q", s.Text[len(s.Text)-20:])
	}
}

func TestWriteStopsWhenContextCancelled(t *testing.T) {
	gen := &fakeGenerator{responses: []fakeResponse{{err: errors.New("boom")}}}
	p, _ := prompts.Default()
	w := NewWriter(gen, p, WithPolicy(retry.Policy{Attempts: 3, InitialDelay: time.Hour}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Write(ctx, "black holes", Short)
	var failure *GenerationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Write() error = %v, want *GenerationFailure", err)
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1", gen.calls)
	}
}

func TestFitLength(t *testing.T) {
	longSentence := strings.Repeat("word ", 199) + "end."
	hundredWords := strings.Repeat("word ", 99) + "end."

	tests := []struct {
		name      string
		raw       string
		min, max  int
		wantWords int
	}{
		{name: "underLimit", raw: narration(50), min: 10, max: 100, wantWords: 50},
		{name: "dropsTrailingSentences", raw: narration(50), min: 10, max: 25, wantWords: 20},
		{name: "noBoundary", raw: strings.Repeat("word ", 40), min: 5, max: 10, wantWords: 10},
		{name: "firstSentenceOverLimit", raw: longSentence + " " + narration(30), min: 111, max: 149, wantWords: 149},
		{name: "sentencesFallShortOfMinimum", raw: hundredWords + " " + hundredWords, min: 111, max: 149, wantWords: 149},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fitLength(tt.raw, tt.min, tt.max)
			if words := CountWords(Clean(got)); words != tt.wantWords {
				t.Errorf("fitLength() kept %d words, want %d", words, tt.wantWords)
			}
		})
	}
}

func TestWriteKeepsWordCountWithinTolerance(t *testing.T) {
	raw := strings.Repeat("word ", 199) + "end. " + narration(30)
	gen := &fakeGenerator{responses: []fakeResponse{{text: raw}}}
	w := newTestWriter(t, gen, nil)

	s, err := w.Write(context.Background(), "black holes", Short)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if s.WordCount < 111 || s.WordCount > 149 {
		t.Errorf("WordCount = %d, want within 111..149 for target %d", s.WordCount, s.TargetWordCount)
	}
}
