package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// Func is an operation that can be retried. attempt starts at 0.
type Func func(attempt int) error

// IsRetryableFunc is a function that determines if an error is retryable
type IsRetryableFunc func(error) bool

// Options configures the retry behavior
type Options struct {
	// MaxRetries is the maximum number of retry attempts (not including the initial attempt)
	MaxRetries int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// BackoffFactor is the factor by which the delay increases after each retry
	BackoffFactor float64

	// JitterFactor adds randomness to the delay (0.0 = no jitter, 1.0 = 100% jitter)
	JitterFactor float64

	// RetryableErrors is a list of errors that are considered retryable
	RetryableErrors []error

	// IsRetryableFunc is a function that determines if an error is retryable
	// If provided, this takes precedence over RetryableErrors
	IsRetryableFunc IsRetryableFunc

	// Logger receives one line per retry decision. Nil discards them.
	Logger func(format string, args ...interface{})
}

// DefaultOptions returns default retry options
func DefaultOptions() Options {
	return Options{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is done. The last error is returned.
func Do(ctx context.Context, fn Func, opts Options) error {
	var delay time.Duration

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	for attempt := 0; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 0 {
				logf("Retry successful on attempt %d", attempt+1)
			}
			return nil
		}

		if !isRetryable(err, opts) {
			return err
		}

		if attempt >= opts.MaxRetries {
			logf("Max retries exceeded (%d attempts): %v", attempt+1, err)
			return err
		}

		delay = nextDelay(delay, attempt, opts)
		if opts.JitterFactor > 0 {
			jitter := float64(delay) * opts.JitterFactor
			delay = time.Duration(float64(delay) + (rnd.Float64()*jitter*2 - jitter))
		}

		logf("Retry attempt %d after %v: %v", attempt+1, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func nextDelay(prev time.Duration, attempt int, opts Options) time.Duration {
	if attempt == 0 {
		return opts.InitialDelay
	}

	delay := time.Duration(float64(prev) * opts.BackoffFactor)
	if opts.MaxDelay > 0 && delay > opts.MaxDelay {
		delay = opts.MaxDelay
	}
	return delay
}

// IsRetryable checks if an error matches one of the retryable errors, either
// through errors.Is or by message.
func IsRetryable(err error, retryableErrors []error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	for _, retryableErr := range retryableErrors {
		if errors.Is(err, retryableErr) || strings.Contains(errMsg, retryableErr.Error()) {
			return true
		}
	}

	return false
}

func isRetryable(err error, opts Options) bool {
	if opts.IsRetryableFunc != nil {
		return opts.IsRetryableFunc(err)
	}
	return IsRetryable(err, opts.RetryableErrors)
}
