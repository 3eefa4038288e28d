package script

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"topicast/internal/llm"
	"topicast/pkg/prompts"
	"topicast/pkg/retry"
)

const (
	tokensPerWord      = 2
	scriptTemperature  = 0.8
	overlengthFraction = 1.15
	minLengthFraction  = 0.85
)

var sentenceEndPattern = regexp.MustCompile(`[.!?]+["')\]]*(?:\s+|$)`)

type Script struct {
	Topic string
	Class DurationClass
	// Text is the model output as persisted.
	Text string
	// Cleaned is Text prepared for speech synthesis.
	Cleaned         string
	WordCount       int
	TargetWordCount int
}

type Writer struct {
	llm     llm.TextGenerator
	prompts *prompts.Prompts
	policy  retry.Policy
	sleep   retry.Sleeper
}

type Option func(*Writer)

func WithPolicy(policy retry.Policy) Option {
	return func(w *Writer) {
		w.policy = policy
	}
}

func WithSleeper(sleep retry.Sleeper) Option {
	return func(w *Writer) {
		w.sleep = sleep
	}
}

func NewWriter(generator llm.TextGenerator, p *prompts.Prompts, opts ...Option) *Writer {
	w := &Writer{
		llm:     generator,
		prompts: p,
		policy:  retry.DefaultPolicy(),
		sleep:   retry.Sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write drafts a narration for topic. It fails with *GenerationFailure when
// every attempt errors or yields unusable text.
func (w *Writer) Write(ctx context.Context, topic string, class DurationClass) (*Script, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &GenerationFailure{Topic: topic, Cause: CauseOther, Err: fmt.Errorf("topic is empty")}
	}

	messages, err := w.buildMessages(topic, class)
	if err != nil {
		return nil, &GenerationFailure{Topic: topic, Cause: CauseOther, Err: err}
	}

	target := class.TargetWords()
	opts := llm.Options{
		MaxTokens:   target * tokensPerWord,
		Temperature: scriptTemperature,
	}

	var result *Script
	attempts := 0
	err = w.policy.Do(ctx, w.sleep, func(attempt int) error {
		attempts = attempt
		raw, err := w.llm.Complete(ctx, messages, opts)
		if err != nil {
			slog.Warn("Script generation attempt failed", "topic", topic, "attempt", attempt, "error", err)
			return err
		}

		s, err := buildScript(topic, class, raw)
		if err != nil {
			slog.Warn("Script generation attempt unusable", "topic", topic, "attempt", attempt, "error", err)
			return err
		}
		result = s
		return nil
	})
	if err != nil {
		return nil, &GenerationFailure{
			Topic:    topic,
			Attempts: attempts,
			Cause:    Classify(err),
			Err:      err,
		}
	}

	slog.Debug("Script drafted", "topic", topic, "words", result.WordCount, "target", result.TargetWordCount, "attempts", attempts)
	return result, nil
}

func (w *Writer) buildMessages(topic string, class DurationClass) ([]llm.Message, error) {
	target := class.TargetWords()
	minWords, maxWords := class.Bounds()
	hook := int(float64(target)*hookShare + 0.5)
	wrap := int(float64(target)*wrapShare + 0.5)

	prompt, err := w.prompts.RenderScript(prompts.ScriptParams{
		Topic:     topic,
		WordCount: target,
		MinWords:  minWords,
		MaxWords:  maxWords,
		HookWords: hook,
		BodyWords: target - hook - wrap,
		WrapWords: wrap,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	return []llm.Message{
		llm.System(w.prompts.System.Script),
		llm.User(prompt),
	}, nil
}

func buildScript(topic string, class DurationClass, raw string) (*Script, error) {
	target := class.TargetWords()
	minWords := int(math.Ceil(float64(target) * minLengthFraction))
	maxWords := int(float64(target) * overlengthFraction)
	raw = fitLength(strings.TrimSpace(raw), minWords, maxWords)

	cleaned := Clean(raw)
	words := CountWords(cleaned)
	if words == 0 {
		return nil, fmt.Errorf("empty response after cleanup")
	}
	if words < minWords {
		return nil, fmt.Errorf("script too short: %d words, want about %d", words, target)
	}
	if words > maxWords {
		return nil, fmt.Errorf("script too long: %d words, want about %d", words, target)
	}

	return &Script{
		Topic:           topic,
		Class:           class,
		Text:            raw,
		Cleaned:         cleaned,
		WordCount:       words,
		TargetWordCount: target,
	}, nil
}

// fitLength drops trailing sentences until the cleaned text has at most
// maxWords words. When whole sentences cannot reach minWords without
// passing maxWords, the text is cut at maxWords words instead.
func fitLength(raw string, minWords, maxWords int) string {
	if CountWords(Clean(raw)) <= maxWords {
		return raw
	}

	best := ""
	for _, end := range sentenceEndPattern.FindAllStringIndex(raw, -1) {
		candidate := strings.TrimSpace(raw[:end[1]])
		if CountWords(Clean(candidate)) > maxWords {
			break
		}
		best = candidate
	}

	if best != "" && CountWords(Clean(best)) >= minWords {
		return best
	}
	return truncateWords(raw, maxWords)
}

func truncateWords(raw string, n int) string {
	fields := strings.Fields(raw)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
