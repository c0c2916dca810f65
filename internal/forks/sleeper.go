package forks

import (
	"context"
	"time"
)

// Sleeper pauses the workflow between remote calls.
type Sleeper interface {
	Sleep(executionContext context.Context, duration time.Duration) error
}

// TimerSleeper waits on a timer and returns early with the context error when cancelled.
type TimerSleeper struct{}

// Sleep blocks for duration or until the context is done.
func (TimerSleeper) Sleep(executionContext context.Context, duration time.Duration) error {
	if duration <= 0 {
		return executionContext.Err()
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
