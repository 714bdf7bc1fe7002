package gateway

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyProvider struct {
	failures int
	calls    int
	err      error
}

func (f *flakyProvider) Name() string  { return "flaky" }
func (f *flakyProvider) Model() string { return "flaky" }

func (f *flakyProvider) GenerateText(_ context.Context, _ string, _ Options) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "recovered", nil
}

func (f *flakyProvider) GenerateFromImage(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "recovered", nil
}

func TestRetryingRecoversFromTransientFailures(t *testing.T) {
	inner := &flakyProvider{failures: 2, err: ErrUnavailable}
	p := NewRetrying(inner, RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond})

	out, err := p.GenerateText(context.Background(), "risk screening", Options{})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if out != "recovered" {
		t.Fatalf("unexpected output: %q", out)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetryingGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: ErrQuotaExhausted}
	p := NewRetrying(inner, RetryPolicy{MaxAttempts: 2, BaseBackoff: time.Millisecond})

	_, err := p.GenerateText(context.Background(), "risk screening", Options{})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", inner.calls)
	}
}

func TestRetryingNeverRetriesPermanentErrors(t *testing.T) {
	permanent := errors.New("malformed prompt")
	inner := &flakyProvider{failures: 10, err: permanent}
	p := NewRetrying(inner, RetryPolicy{MaxAttempts: 4, BaseBackoff: time.Millisecond})

	_, err := p.GenerateText(context.Background(), "risk screening", Options{})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("permanent error retried: %d calls", inner.calls)
	}
}

func TestNoopProviderRiskGuidance(t *testing.T) {
	p := NewNoop()
	out, err := p.GenerateText(context.Background(), "Diabetes risk screening for rural patient", Options{})
	if err != nil {
		t.Fatalf("noop error: %v", err)
	}
	if out == "" {
		t.Fatalf("expected canned guidance")
	}
}
