// Package retry provides the bounded retry loop used for calls to the
// imagery API and artifact downloads. Only transient failures are retried;
// client errors surface immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of tries including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt. Each further
	// attempt doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to Transient.
	Retryable func(error) bool
}

// Default returns the policy used for API calls: three attempts with
// backoff growing from two seconds to a thirty second ceiling.
func Default() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Do runs fn until it succeeds, a permanent error occurs, the context ends,
// or attempts are exhausted. The op label names the operation in the final
// error.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = Transient
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx, attempt); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !retryable(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		lastErr = err
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, lastErr)
}

// wait sleeps the backoff before the given attempt, with jitter between
// half and one-and-a-half of the nominal duration.
func (p Policy) wait(ctx context.Context, attempt int) error {
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	backoff <<= uint(attempt - 2)
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	jittered := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jittered):
		return nil
	}
}

// Transient reports whether an error looks like a passing network or server
// condition. Cancellation is never transient.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	return false
}

// StatusError records a non-success HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Temporary reports whether the status is worth retrying. Rate limiting and
// server errors are; other client errors are not.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}
