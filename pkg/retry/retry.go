package retry

import (
	"context"
	"fmt"
	"time"
)

type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func DefaultPolicy() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 2 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 8 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	return p
}

// Delay returns the wait before the given retry, 1-based: Delay(1) is the pause
// between the first and second attempt.
func (p Policy) Delay(retry int) time.Duration {
	p = p.withDefaults()
	if retry <= 0 {
		return 0
	}
	delay := p.InitialDelay
	for i := 1; i < retry; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(delay, p.MaxDelay)
}

// Do calls fn until it succeeds or the attempts run out. The attempt number passed
// to fn starts at 1. The last error is returned when every attempt fails.
func (p Policy) Do(ctx context.Context, sleep Sleeper, fn func(attempt int) error) error {
	p = p.withDefaults()
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			if sleepErr := sleep(ctx, p.Delay(attempt-1)); sleepErr != nil {
				return fmt.Errorf("retry interrupted after %d attempts: %w (last error: %v)", attempt-1, sleepErr, err)
			}
		}

		err = fn(attempt)
		if err == nil {
			return nil
		}
	}

	return err
}

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
