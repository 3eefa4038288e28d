package audio

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

type Coverage string

const (
	Full        Coverage = "full"
	Substantial Coverage = "substantial"
	Excerpt     Coverage = "excerpt"
	None        Coverage = "none"
)

const (
	fullCharLimit    = 1000
	excerptCharLimit = 400

	substantialShare = 0.4
	minSubstantial   = 8
	maxSubstantial   = 12

	fullTimeout        = 45 * time.Second
	substantialTimeout = 30 * time.Second
	excerptTimeout     = 20 * time.Second
)

var (
	sentenceEndPattern = regexp.MustCompile(`[.!?]+["')\]]*(?:\s+|$)`)
	paragraphPattern   = regexp.MustCompile(`\n[ \t]*\n`)
)

// Selector picks the part of the text a tier sends for synthesis. It
// reports false when the tier does not apply.
type Selector func(text string) (string, bool)

type Tier struct {
	Coverage Coverage
	Timeout  time.Duration
	Select   Selector
}

// DefaultTiers returns full, substantial and excerpt, in the order they are tried.
func DefaultTiers() []Tier {
	return []Tier{
		{Coverage: Full, Timeout: fullTimeout, Select: selectFull},
		{Coverage: Substantial, Timeout: substantialTimeout, Select: selectSubstantial},
		{Coverage: Excerpt, Timeout: excerptTimeout, Select: selectExcerpt},
	}
}

func selectFull(text string) (string, bool) {
	if text == "" || utf8.RuneCountInString(text) > fullCharLimit {
		return "", false
	}
	return text, true
}

// selectSubstantial takes about 40% of the sentences, between 8 and 12, when
// the text is too long for a single call.
func selectSubstantial(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= fullCharLimit {
		return "", false
	}

	ends := sentenceEnds(text)
	n := int(math.Round(substantialShare * float64(len(ends))))
	n = max(minSubstantial, min(maxSubstantial, n))
	if n >= len(ends) {
		return "", false
	}

	candidate := strings.TrimSpace(text[:ends[n-1]])
	if candidate == "" || candidate == text {
		return "", false
	}
	return candidate, true
}

// selectExcerpt takes the first one or two paragraphs when they fit, or
// else the first ~400 characters cut back to a sentence boundary. The
// result is always a strict prefix of text.
func selectExcerpt(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	candidate := paragraphPrefix(text)
	if candidate == "" {
		candidate = boundedPrefix(text)
	}

	candidate = strings.TrimSpace(candidate)
	if candidate == "" || candidate == strings.TrimSpace(text) {
		return "", false
	}
	return candidate, true
}

func paragraphPrefix(text string) string {
	breaks := paragraphPattern.FindAllStringIndex(text, 2)

	if len(breaks) >= 2 && utf8.RuneCountInString(text[:breaks[1][0]]) <= excerptCharLimit {
		return text[:breaks[1][0]]
	}
	if len(breaks) >= 1 && utf8.RuneCountInString(text[:breaks[0][0]]) <= excerptCharLimit {
		return text[:breaks[0][0]]
	}
	return ""
}

func boundedPrefix(text string) string {
	prefix := truncateRunes(text, excerptCharLimit)
	if len(prefix) == len(text) {
		return prefix
	}

	if matches := sentenceEndPattern.FindAllStringIndex(prefix, -1); len(matches) > 0 {
		return prefix[:matches[len(matches)-1][1]]
	}
	if i := strings.LastIndexAny(prefix, " \n"); i > 0 {
		return prefix[:i]
	}
	return prefix
}

// sentenceEnds returns the byte offsets just past each sentence. Trailing
// text without terminal punctuation counts as a final sentence.
func sentenceEnds(text string) []int {
	var ends []int
	for _, m := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		ends = append(ends, m[1])
	}
	if strings.TrimSpace(text[lastOr(ends, 0):]) != "" {
		ends = append(ends, len(text))
	}
	return ends
}

func lastOr(xs []int, fallback int) int {
	if len(xs) == 0 {
		return fallback
	}
	return xs[len(xs)-1]
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
