package search

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"strings"
	"time"

	"licitasearch/searchservice/internal/domain"
)

// RetryConfig controls the exponential backoff applied to transient page
// fetch failures.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the fetcher defaults: 3 attempts, 400ms→800ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 400 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryWithBackoff runs fn until it succeeds, the error is non-transient,
// or the attempt budget is spent. Upstream HTTP errors are never retried;
// only transport-level failures count as transient. The delay between
// attempts gets ±25% jitter and respects context cancellation.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransientError(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		jittered := applyJitter(delay)
		if jittered > cfg.MaxDelay {
			jittered = cfg.MaxDelay
		}

		timer := time.NewTimer(jittered)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}

func applyJitter(d time.Duration) time.Duration {
	// factor in [0.75, 1.25)
	factor := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * factor)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "eof")
}
