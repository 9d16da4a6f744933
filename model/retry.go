package model

import (
	"context"
	"time"

	"github.com/faisca-ai/faisca/core"
)

// RetryOptions configures the retry wrapper around a completion backend.
type RetryOptions struct {
	// MaxAttempts is the total number of Complete attempts (initial + retries).
	MaxAttempts int
	// Backoff is the base delay between attempts; attempt n waits n*Backoff.
	Backoff time.Duration
}

type retryModel struct {
	inner Model
	opts  RetryOptions
}

// WithRetry wraps a Model with bounded retries. When every attempt fails the
// returned error is a COMPLETION_BACKEND_FAILURE, which the orchestrator
// treats as fatal for the turn.
func WithRetry(inner Model, optFns ...func(o *RetryOptions)) Model {
	opts := RetryOptions{
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &retryModel{inner: inner, opts: opts}
}

// Complete implements Model.
func (m *retryModel) Complete(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= m.opts.MaxAttempts; attempt++ {
		resp, err := m.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if attempt == m.opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, core.NewInvocationError(core.ErrCompletionBackend, "completion aborted: %v", ctx.Err())
		case <-time.After(time.Duration(attempt) * m.opts.Backoff):
		}
	}

	return nil, core.NewInvocationError(core.ErrCompletionBackend,
		"completion backend failed after %d attempts: %v", m.opts.MaxAttempts, lastErr)
}

// Info implements Model.
func (m *retryModel) Info() Info { return m.inner.Info() }
