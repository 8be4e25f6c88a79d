package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"licitasearch/searchservice/internal/domain"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryDoesNotRetryUpstreamHTTPErrors(t *testing.T) {
	calls := 0
	upstream := &domain.UpstreamError{Status: 429, Message: "request timeout budget exceeded"}
	err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return upstream
	})
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error returned, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("upstream HTTP errors must not be retried, got %d calls", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetryConfig(3), func() error {
		calls++
		return errors.New("i/o timeout")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, RetryConfig{MaxAttempts: 5, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}, func() error {
		calls++
		cancel()
		return errors.New("connection refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{context.DeadlineExceeded, true},
		{&domain.UpstreamError{Status: 500, Message: "timeout"}, false},
		{errors.New("invalid payload"), false},
	}
	for _, tc := range cases {
		if got := isTransientError(tc.err); got != tc.want {
			t.Fatalf("isTransientError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
