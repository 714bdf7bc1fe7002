package gateway

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy is an explicit bounded retry configuration. Zero value means
// no retries at all.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseBackoff: 200 * time.Millisecond}
}

// Retrying wraps a Provider with exponential backoff on transient errors.
// Everything else fails through on the first attempt.
type Retrying struct {
	inner  Provider
	policy RetryPolicy
}

func NewRetrying(inner Provider, policy RetryPolicy) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = 200 * time.Millisecond
	}
	return &Retrying{inner: inner, policy: policy}
}

func (r *Retrying) Name() string  { return r.inner.Name() }
func (r *Retrying) Model() string { return r.inner.Model() }

func (r *Retrying) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	var out string
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		text, err := r.inner.GenerateText(ctx, prompt, opts)
		if err != nil {
			if Transient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func (r *Retrying) GenerateFromImage(ctx context.Context, image []byte, prompt string) (string, error) {
	var out string
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		text, err := r.inner.GenerateFromImage(ctx, image, prompt)
		if err != nil {
			if Transient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func (r *Retrying) backoff() retry.Backoff {
	b := retry.NewExponential(r.policy.BaseBackoff)
	return retry.WithMaxRetries(uint64(r.policy.MaxAttempts-1), b)
}
