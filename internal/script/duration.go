package script

import (
	"fmt"
	"strings"
)

type DurationClass string

const (
	Short  DurationClass = "short"
	Medium DurationClass = "medium"
	Long   DurationClass = "long"
)

const (
	// WordsPerMinute is the narration pace used for duration estimates.
	WordsPerMinute = 150.0

	hookShare = 0.10
	wrapShare = 0.10
)

var targetWords = map[DurationClass]int{
	Short:  130,
	Medium: 160,
	Long:   190,
}

// ParseDurationClass accepts short, medium or long; empty input yields Medium.
func ParseDurationClass(s string) (DurationClass, error) {
	switch d := DurationClass(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Medium, nil
	case Short, Medium, Long:
		return d, nil
	default:
		return "", fmt.Errorf("unknown duration class %q (want short, medium or long)", s)
	}
}

func (d DurationClass) TargetWords() int {
	if n, ok := targetWords[d]; ok {
		return n
	}
	return targetWords[Medium]
}

// Bounds returns the word range the prompt asks for, ±10% of the target.
func (d DurationClass) Bounds() (int, int) {
	target := d.TargetWords()
	return target * 9 / 10, target * 11 / 10
}

// EstimateSeconds converts a word count into spoken seconds.
func EstimateSeconds(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return int(float64(wordCount)/WordsPerMinute*60.0 + 0.5)
}
