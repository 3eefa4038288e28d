package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Cause is a coarse reason for a failed generation, used only for messaging.
type Cause string

const (
	CauseCapacity Cause = "capacity_exceeded"
	CauseTimeout  Cause = "timeout"
	CauseOther    Cause = "other"
)

// GenerationFailure is returned when the text service produced no usable
// script within the attempt budget.
type GenerationFailure struct {
	Topic    string
	Attempts int
	Cause    Cause
	Err      error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generate script for %q failed after %d attempts (%s): %v", e.Topic, e.Attempts, e.Cause, e.Err)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Err
}

var (
	capacityMarkers = []string{"capacity", "rate limit", "rate_limit", "quota", "429", "too many requests", "overloaded", "exceeded"}
	timeoutMarkers  = []string{"timeout", "timed out", "deadline exceeded"}
)

// Classify inspects an error message for capacity or timeout hints.
func Classify(err error) Cause {
	if err == nil {
		return CauseOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range timeoutMarkers {
		if strings.Contains(msg, marker) {
			return CauseTimeout
		}
	}
	for _, marker := range capacityMarkers {
		if strings.Contains(msg, marker) {
			return CauseCapacity
		}
	}
	return CauseOther
}
