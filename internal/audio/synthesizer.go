package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"topicast/internal/speech"
)

const defaultLanguage = "en"

var errNoTier = errors.New("no tier applies to the text")

type Asset struct {
	Payload  []byte
	Encoding string
	Coverage Coverage
	// Text is the part of the script the payload speaks.
	Text string
}

// TierAttempt records one synthesis call.
type TierAttempt struct {
	Coverage Coverage
	Chars    int
	Elapsed  time.Duration
	Err      error
}

// Outcome is the result of a synthesis run. Asset is nil and Coverage is
// None when every tier failed; Err then holds a *SynthesisFailure.
type Outcome struct {
	Asset    *Asset
	Coverage Coverage
	Attempts []TierAttempt
	Err      error
}

type SynthesisFailure struct {
	Attempts []TierAttempt
	Err      error
}

func (e *SynthesisFailure) Error() string {
	return fmt.Sprintf("audio synthesis failed after %d tier attempts: %v", len(e.Attempts), e.Err)
}

func (e *SynthesisFailure) Unwrap() error {
	return e.Err
}

type Synthesizer struct {
	provider speech.Provider
	tiers    []Tier
}

type Option func(*Synthesizer)

func WithTiers(tiers []Tier) Option {
	return func(s *Synthesizer) {
		s.tiers = tiers
	}
}

func NewSynthesizer(provider speech.Provider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider: provider,
		tiers:    DefaultTiers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize tries each tier in order until one call returns valid audio.
// It never fails; a run with no audio reports Coverage None.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) Outcome {
	text = strings.TrimSpace(text)
	if language == "" {
		language = defaultLanguage
	}

	var attempts []TierAttempt
	var errs []error

	for _, tier := range s.tiers {
		candidate, ok := tier.Select(text)
		if !ok {
			slog.Debug("Audio tier skipped", "tier", tier.Coverage)
			continue
		}

		chars := utf8.RuneCountInString(candidate)
		start := time.Now()
		payload, err := s.attempt(ctx, tier, candidate, language)
		attempts = append(attempts, TierAttempt{
			Coverage: tier.Coverage,
			Chars:    chars,
			Elapsed:  time.Since(start),
			Err:      err,
		})

		if err == nil {
			slog.Info("Audio synthesized", "tier", tier.Coverage, "chars", chars, "bytes", len(payload))
			return Outcome{
				Asset: &Asset{
					Payload:  payload,
					Encoding: speech.Encoding,
					Coverage: tier.Coverage,
					Text:     candidate,
				},
				Coverage: tier.Coverage,
				Attempts: attempts,
			}
		}

		slog.Warn("Audio tier failed", "tier", tier.Coverage, "chars", chars, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", tier.Coverage, err))

		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		errs = append(errs, errNoTier)
	}

	return Outcome{
		Coverage: None,
		Attempts: attempts,
		Err:      &SynthesisFailure{Attempts: attempts, Err: errors.Join(errs...)},
	}
}

type callResult struct {
	audio []byte
	err   error
}

// attempt bounds a single provider call by the tier timeout, even when the
// provider does not watch its context.
func (s *Synthesizer) attempt(ctx context.Context, tier Tier, text, language string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, tier.Timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		audio, err := s.provider.Synthesize(callCtx, text, language)
		done <- callResult{audio: audio, err: err}
	}()

	select {
	case <-callCtx.Done():
		return nil, fmt.Errorf("synthesize: %w", callCtx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("synthesize: %w", res.err)
		}
		if err := speech.Validate(res.audio); err != nil {
			return nil, err
		}
		return res.audio, nil
	}
}
