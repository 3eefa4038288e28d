package slug

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"topicast/internal/llm"
	"topicast/pkg/prompts"
)

const (
	MinLength = 3
	MaxLength = 50

	maxCandidateLength = 30
	maxTopicBase       = 20
	randomSuffixLength = 4
	randomTries        = 3

	candidateMaxTokens   = 20
	candidateTemperature = 0.9

	emptyTopicBase = "episode"
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	invalidChars  = regexp.MustCompile(`[^a-z0-9]+`)
	slugLabel     = regexp.MustCompile(`(?i)^\s*slug\s*:\s*`)
	prefixWords   = []string{"curious", "deep", "hidden", "quick", "bright", "bold", "wild", "inside"}
	suffixWords   = []string{"explained", "unpacked", "decoded", "talk", "story", "notes", "dive", "insight"}
	validSlugExpr = regexp.MustCompile(`^[a-z0-9-]{3,50}$`)
)

// Checker reports whether a slug is already taken.
type Checker interface {
	Exists(ctx context.Context, slug string) (bool, error)
}

type Minter struct {
	llm     llm.TextGenerator
	prompts *prompts.Prompts
	store   Checker
	intn    func(n int) int
	now     func() time.Time
}

type Option func(*Minter)

// WithRandom replaces the source of random indexes; intn must return a
// value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(m *Minter) {
		m.intn = intn
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Minter) {
		m.now = now
	}
}

func NewMinter(generator llm.TextGenerator, p *prompts.Prompts, store Checker, opts ...Option) *Minter {
	m := &Minter{
		llm:     generator,
		prompts: p,
		store:   store,
		intn:    rand.IntN,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mint returns a slug for topic that was free at the time of the check.
func (m *Minter) Mint(ctx context.Context, topic string) string {
	base := m.Candidate(ctx, topic)
	return m.Unique(ctx, base)
}

// Candidate asks the text service for a short slug and falls back to one
// derived from the topic when the answer is missing or unusable.
func (m *Minter) Candidate(ctx context.Context, topic string) string {
	if m.llm != nil && m.prompts != nil && strings.TrimSpace(topic) != "" {
		candidate, err := m.generate(ctx, topic)
		if err == nil {
			return candidate
		}
		slog.Warn("Slug generation failed, using fallback", "topic", topic, "error", err)
	}
	return m.Fallback(topic)
}

func (m *Minter) generate(ctx context.Context, topic string) (string, error) {
	prompt, err := m.prompts.RenderSlug(prompts.SlugParams{Topic: topic})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	raw, err := m.llm.Complete(ctx, []llm.Message{
		llm.System(m.prompts.System.Slug),
		llm.User(prompt),
	}, llm.Options{MaxTokens: candidateMaxTokens, Temperature: candidateTemperature})
	if err != nil {
		return "", err
	}

	candidate := Sanitize(firstLine(raw))
	if len(candidate) < MinLength || len(candidate) > maxCandidateLength {
		return "", fmt.Errorf("unusable slug candidate %q", raw)
	}
	return candidate, nil
}

// Fallback derives a slug from the topic and decorates it with a random
// descriptive word.
func (m *Minter) Fallback(topic string) string {
	base := truncate(Sanitize(topic), maxTopicBase)
	if base == "" {
		base = emptyTopicBase
	}

	if m.intn(2) == 0 {
		return prefixWords[m.intn(len(prefixWords))] + "-" + base
	}
	return base + "-" + suffixWords[m.intn(len(suffixWords))]
}

// Unique returns base when it is free, otherwise base with a random
// four-character suffix, otherwise base with a millisecond timestamp.
func (m *Minter) Unique(ctx context.Context, base string) string {
	if m.available(ctx, base) {
		return base
	}

	for range randomTries {
		candidate := withSuffix(base, m.randomSuffix())
		if m.available(ctx, candidate) {
			return candidate
		}
	}

	candidate := withSuffix(base, fmt.Sprintf("%d", m.now().UnixMilli()))
	slog.Debug("Slug collisions persisted, using timestamp", "slug", candidate)
	return candidate
}

func (m *Minter) available(ctx context.Context, slug string) bool {
	if m.store == nil {
		return true
	}
	taken, err := m.store.Exists(ctx, slug)
	if err != nil {
		slog.Warn("Slug lookup failed, assuming free", "slug", slug, "error", err)
		return true
	}
	return !taken
}

func (m *Minter) randomSuffix() string {
	b := make([]byte, randomSuffixLength)
	for i := range b {
		b[i] = suffixAlphabet[m.intn(len(suffixAlphabet))]
	}
	return string(b)
}

// Sanitize lowercases s and reduces it to hyphen-separated [a-z0-9] runs.
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = invalidChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return validSlugExpr.MatchString(s) && !strings.HasPrefix(s, "-") && !strings.HasSuffix(s, "-")
}

func withSuffix(base, suffix string) string {
	base = truncate(base, MaxLength-len(suffix)-1)
	if base == "" {
		base = emptyTopicBase
	}
	return base + "-" + suffix
}

func truncate(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return strings.Trim(s, "-")
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return slugLabel.ReplaceAllString(line, "")
		}
	}
	return ""
}
