package engine

import (
	"context"
	"testing"
	"time"
)

func TestWaitSleepsRemainderOfInterval(t *testing.T) {
	e := &Engine{}
	start := time.Now().Add(-10 * time.Millisecond)

	waitStart := time.Now()
	if err := e.wait(context.Background(), start, 30*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(waitStart)
	if elapsed < 15*time.Millisecond {
		t.Errorf("expected wait to sleep close to the remaining interval, elapsed %v", elapsed)
	}
}

func TestWaitReturnsImmediatelyWhenIntervalAlreadyElapsed(t *testing.T) {
	e := &Engine{}
	start := time.Now().Add(-time.Second)

	waitStart := time.Now()
	if err := e.wait(context.Background(), start, 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(waitStart); elapsed > 5*time.Millisecond {
		t.Errorf("expected wait to return immediately, took %v", elapsed)
	}
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	e := &Engine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.wait(ctx, time.Now(), time.Second)
	if err == nil {
		t.Error("expected context cancellation error")
	}
}
