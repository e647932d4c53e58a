package parser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plinvoice/internal/parser"
)

// newRecordingRetrier returns a retrier whose sleeps are recorded instead of
// actually waiting.
func newRecordingRetrier(maxAttempts int) (*parser.Retrier, *[]time.Duration) {
	var delays []time.Duration
	r := parser.NewRetrier(maxAttempts)
	r.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return r, &delays
}

func TestRetrier_SucceedsFirstAttempt(t *testing.T) {
	r, delays := newRecordingRetrier(5)

	calls := 0
	out, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestRetrier_RetriesTransientThenSucceeds(t *testing.T) {
	r, delays := newRecordingRetrier(5)

	calls := 0
	out, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("gemini API error (status 429): RESOURCE_EXHAUSTED")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)
}

func TestRetrier_PermanentErrorFailsImmediately(t *testing.T) {
	r, delays := newRecordingRetrier(5)

	permanent := errors.New("gemini API error (status 400): invalid argument")
	calls := 0
	out, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", permanent
	})

	assert.Empty(t, out)
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	r, delays := newRecordingRetrier(3)

	transient := errors.New("model is overloaded, try again later")
	calls := 0
	out, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", transient
	})

	assert.Empty(t, out)
	assert.Equal(t, transient, err)
	assert.Equal(t, 3, calls)
	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)
}

func TestRetrier_HonorsRetryInHint(t *testing.T) {
	r, delays := newRecordingRetrier(5)

	calls := 0
	_, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("429: rate limited, please retry in 26.5s")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	require.Len(t, *delays, 1)
	assert.Equal(t, time.Duration(26.5*float64(time.Second)), (*delays)[0])
}

func TestRetrier_BackoffDoubles(t *testing.T) {
	r, delays := newRecordingRetrier(5)

	transient := errors.New("503 UNAVAILABLE")
	_, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		return "", transient
	})

	assert.Equal(t, transient, err)
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, *delays)
}

func TestRetrier_SleepErrorAborts(t *testing.T) {
	r := parser.NewRetrier(5)
	r.Sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	calls := 0
	out, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("429 rate limited")
	})

	assert.Empty(t, out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetrier_ZeroMaxAttemptsUsesDefault(t *testing.T) {
	r, _ := newRecordingRetrier(0)

	calls := 0
	_, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("429")
	})

	assert.Error(t, err)
	assert.Equal(t, 5, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 status", errors.New("gemini API error (status 429): quota"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED"), true},
		{"503 status", errors.New("gemini API error (status 503)"), true},
		{"unavailable", errors.New("UNAVAILABLE"), true},
		{"overloaded mixed case", errors.New("The model is Overloaded"), true},
		{"bad request", errors.New("gemini API error (status 400): bad request"), false},
		{"connection refused", errors.New("dial tcp: connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.IsTransient(tt.err))
		})
	}
}
