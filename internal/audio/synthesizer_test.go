package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

var validAudio = make([]byte, 2048)

type fakeProvider struct {
	mu        sync.Mutex
	texts     []string
	languages []string
	respond   func(ctx context.Context, call int, text string) ([]byte, error)
}

func (f *fakeProvider) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.mu.Lock()
	call := len(f.texts)
	f.texts = append(f.texts, text)
	f.languages = append(f.languages, language)
	f.mu.Unlock()
	return f.respond(ctx, call, text)
}

func sentences(n, charsEach int) string {
	parts := make([]string, n)
	for i := range parts {
		body := fmt.Sprintf("Sentence %d ", i+1)
		parts[i] = body + strings.Repeat("x", max(1, charsEach-len(body)-1)) + "."
	}
	return strings.Join(parts, " ")
}

func fastTiers() []Tier {
	tiers := DefaultTiers()
	for i := range tiers {
		tiers[i].Timeout = 20 * time.Millisecond
	}
	return tiers
}

func TestSynthesizeFullText(t *testing.T) {
	provider := &fakeProvider{respond: func(context.Context, int, string) ([]byte, error) {
		return validAudio, nil
	}}
	text := sentences(5, 60)

	out := NewSynthesizer(provider).Synthesize(context.Background(), text, "")

	if out.Coverage != Full || out.Asset == nil {
		t.Fatalf("Coverage = %q, Asset = %v, want full asset", out.Coverage, out.Asset)
	}
	if out.Asset.Text != text {
		t.Error("full coverage should synthesize the entire text")
	}
	if out.Asset.Encoding != "audio/mpeg" {
		t.Errorf("Encoding = %q, want audio/mpeg", out.Asset.Encoding)
	}
	if out.Err != nil {
		t.Errorf("Err = %v, want nil", out.Err)
	}
	if len(out.Attempts) != 1 {
		t.Errorf("Attempts = %d, want 1", len(out.Attempts))
	}
	if provider.languages[0] != "en" {
		t.Errorf("language = %q, want en", provider.languages[0])
	}
}

func TestSynthesizeLongTextUsesSubstantial(t *testing.T) {
	provider := &fakeProvider{respond: func(context.Context, int, string) ([]byte, error) {
		return validAudio, nil
	}}
	text := sentences(25, 60)

	out := NewSynthesizer(provider).Synthesize(context.Background(), text, "de")

	if out.Coverage != Substantial {
		t.Fatalf("Coverage = %q, want substantial", out.Coverage)
	}
	if !strings.HasPrefix(text, out.Asset.Text) || out.Asset.Text == text {
		t.Error("substantial audio should cover a strict prefix")
	}
	if got := strings.Count(out.Asset.Text, "Sentence "); got != 10 {
		t.Errorf("substantial covers %d sentences, want 10", got)
	}
	if provider.languages[0] != "de" {
		t.Errorf("language = %q, want de", provider.languages[0])
	}
}

func TestSynthesizeFallsBackToExcerpt(t *testing.T) {
	provider := &fakeProvider{respond: func(_ context.Context, call int, _ string) ([]byte, error) {
		if call == 0 {
			return nil, errors.New("text too long")
		}
		return validAudio, nil
	}}
	text := sentences(25, 60)

	out := NewSynthesizer(provider).Synthesize(context.Background(), text, "en")

	if out.Coverage != Excerpt {
		t.Fatalf("Coverage = %q, want excerpt", out.Coverage)
	}
	if len(out.Attempts) != 2 || out.Attempts[0].Err == nil || out.Attempts[0].Coverage != Substantial {
		t.Errorf("Attempts = %+v, want failed substantial then excerpt", out.Attempts)
	}
	if len(out.Asset.Text) > excerptCharLimit || !strings.HasPrefix(text, out.Asset.Text) {
		t.Errorf("excerpt = %q, want a prefix of at most %d chars", out.Asset.Text, excerptCharLimit)
	}
	if !strings.HasSuffix(out.Asset.Text, ".") {
		t.Errorf("excerpt should end on a sentence boundary: %q", out.Asset.Text)
	}
}

func TestSynthesizeRejectsUndersizedAudio(t *testing.T) {
	provider := &fakeProvider{respond: func(_ context.Context, call int, _ string) ([]byte, error) {
		if call == 0 {
			return []byte("tiny"), nil
		}
		return validAudio, nil
	}}
	text := sentences(4, 60) + "\n\n" + sentences(4, 60)

	out := NewSynthesizer(provider).Synthesize(context.Background(), text, "en")

	if out.Coverage != Excerpt {
		t.Fatalf("Coverage = %q, want excerpt after undersized full audio", out.Coverage)
	}
	if out.Asset.Text != sentences(4, 60) {
		t.Errorf("excerpt = %q, want the first paragraph", out.Asset.Text)
	}
}

func TestSynthesizeAllTiersTimeOut(t *testing.T) {
	provider := &fakeProvider{respond: func(ctx context.Context, _ int, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	text := sentences(25, 60)

	out := NewSynthesizer(provider, WithTiers(fastTiers())).Synthesize(context.Background(), text, "en")

	if out.Coverage != None || out.Asset != nil {
		t.Fatalf("Coverage = %q, Asset = %v, want none", out.Coverage, out.Asset)
	}
	if len(out.Attempts) != 2 {
		t.Errorf("Attempts = %d, want 2 (substantial, excerpt)", len(out.Attempts))
	}

	var failure *SynthesisFailure
	if !errors.As(out.Err, &failure) {
		t.Fatalf("Err = %v, want *SynthesisFailure", out.Err)
	}
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want to wrap context.DeadlineExceeded", out.Err)
	}
}

func TestSynthesizeEnforcesTimeoutOnStuckProvider(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	provider := &fakeProvider{respond: func(context.Context, int, string) ([]byte, error) {
		<-release
		return validAudio, nil
	}}

	start := time.Now()
	out := NewSynthesizer(provider, WithTiers(fastTiers())).Synthesize(context.Background(), sentences(3, 60), "en")

	if out.Coverage != None {
		t.Errorf("Coverage = %q, want none", out.Coverage)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Synthesize() took %v, want tier timeouts to bound it", elapsed)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	provider := &fakeProvider{respond: func(context.Context, int, string) ([]byte, error) {
		t.Error("provider should not be called for empty text")
		return validAudio, nil
	}}

	out := NewSynthesizer(provider).Synthesize(context.Background(), "   ", "en")

	if out.Coverage != None || !errors.Is(out.Err, errNoTier) {
		t.Errorf("Outcome = %+v, want none with errNoTier", out)
	}
}

func TestSynthesizeStopsWhenCancelled(t *testing.T) {
	provider := &fakeProvider{respond: func(ctx context.Context, _ int, _ string) ([]byte, error) {
		return nil, ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewSynthesizer(provider).Synthesize(ctx, sentences(25, 60), "en")

	if len(out.Attempts) != 1 {
		t.Errorf("Attempts = %d, want 1 after cancellation", len(out.Attempts))
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", out.Err)
	}
}

func TestSynthesizeCountsCharactersNotBytes(t *testing.T) {
	provider := &fakeProvider{respond: func(context.Context, int, string) ([]byte, error) {
		return validAudio, nil
	}}
	text := strings.Repeat("é", 600) + "."

	out := NewSynthesizer(provider).Synthesize(context.Background(), text, "fr")

	if out.Coverage != Full {
		t.Fatalf("Coverage = %q, want full for 601 characters", out.Coverage)
	}
	if got := out.Attempts[0].Chars; got != 601 {
		t.Errorf("Chars = %d, want 601", got)
	}
}
