package ingest

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: func(error) bool { return true }}

	calls := 0
	retries, err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 || retries != 0 {
		t.Errorf("calls = %d, retries = %d, want 1 and 0", calls, retries)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: func(error) bool { return true }}

	calls := 0
	retries, err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if retries != 2 {
		t.Errorf("retries = %d, want 2", retries)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: func(error) bool { return true }}

	calls := 0
	_, err := p.Do(context.Background(), func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("Do: got %v, want errTransient", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad credentials")
	p := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
	}

	calls := 0
	retries, err := p.Do(context.Background(), func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Do: got %v, want the fatal error", err)
	}
	if calls != 1 || retries != 0 {
		t.Errorf("calls = %d, retries = %d, want 1 and 0 for a non-retryable error", calls, retries)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Minute, Retryable: func(error) bool { return true }}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Do(ctx, func() error { return errTransient })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do on cancelled context: got %v, want context.Canceled", err)
	}
}
