package gateway

import (
	"context"
	"errors"
)

// Options tune a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Provider is the model gateway. Implementations may fail transiently;
// callers decide whether to retry (see Retrying).
type Provider interface {
	GenerateText(ctx context.Context, prompt string, opts Options) (string, error)
	GenerateFromImage(ctx context.Context, image []byte, prompt string) (string, error)
	Name() string
	Model() string
}

// Transient error classes. Only these are eligible for retry; parse and
// validation failures never are.
var (
	ErrUnavailable    = errors.New("model endpoint unavailable")
	ErrQuotaExhausted = errors.New("model quota exhausted")
)

// Transient reports whether err belongs to a retryable class.
func Transient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrQuotaExhausted)
}
