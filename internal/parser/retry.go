package parser

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultMaxAttempts = 5

// retryInRe matches an explicit retry hint embedded in upstream error bodies,
// e.g. "Please retry in 26.5s".
var retryInRe = regexp.MustCompile(`retry in (\d+(?:\.\d+)?)s`)

// Retrier re-issues a fallible upstream call with error-aware delays.
// Only transient errors (rate limit, overload) are retried; anything else
// propagates immediately.
type Retrier struct {
	MaxAttempts int
	// Sleep is injectable for tests; it must respect ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier with the given attempt budget (0 means the
// default of 5) and a context-aware sleep.
func NewRetrier(maxAttempts int) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Retrier{MaxAttempts: maxAttempts, Sleep: sleepContext}
}

// Do invokes op until it succeeds, fails permanently, or the attempt budget
// is exhausted. The loop is iterative with an explicit attempt counter.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		delay := retryDelay(attempt, err)
		log.Printf("parser.Retrier: transient upstream error (attempt %d/%d), retrying in %s: %v",
			attempt, attempts, delay, err)
		if serr := r.Sleep(ctx, delay); serr != nil {
			return "", serr
		}
	}
	return "", lastErr
}

// IsTransient classifies an upstream error as retryable. Rate limits surface
// as HTTP 429 / RESOURCE_EXHAUSTED, server overload as 503 / UNAVAILABLE /
// "overloaded"; everything else is fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "UNAVAILABLE") ||
		strings.Contains(strings.ToLower(msg), "overloaded")
}

// retryDelay computes the backoff for a 1-indexed attempt: 2, 4, 8, 16...
// seconds, unless the error message carries an explicit retry hint.
func retryDelay(attempt int, err error) time.Duration {
	if m := retryInRe.FindStringSubmatch(err.Error()); m != nil {
		if secs, perr := strconv.ParseFloat(m[1], 64); perr == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return time.Duration(2<<(attempt-1)) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
