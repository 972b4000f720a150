package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/iconidentify/imgsniff/internal/domain"
	"github.com/iconidentify/imgsniff/internal/sniff"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryConfigFrom(t *testing.T) {
	cfg := testConfig()
	cfg.RetryAttempts = 4

	rc := RetryConfigFrom(cfg)
	if rc.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", rc.MaxAttempts)
	}
	if rc.InitialDelay != cfg.RetryDelay || rc.MaxDelay != cfg.MaxRetryDelay {
		t.Errorf("delays = %v/%v, want %v/%v", rc.InitialDelay, rc.MaxDelay, cfg.RetryDelay, cfg.MaxRetryDelay)
	}
}

func TestRetryWithCheck_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	got, err := RetryWithCheck(context.Background(), testRetryConfig(), func() (int, error) {
		attempts++
		if attempts < 3 {
			return attempts, errors.New("transient")
		}
		return 42, nil
	}, func(error) bool { return true })

	if err != nil {
		t.Fatalf("RetryWithCheck failed: %v", err)
	}
	if got != 42 || attempts != 3 {
		t.Errorf("got %d after %d attempts, want 42 after 3", got, attempts)
	}
}

func TestRetryWithCheck_ReturnsLastResult(t *testing.T) {
	attempts := 0
	got, err := RetryWithCheck(context.Background(), testRetryConfig(), func() (string, error) {
		attempts++
		return fmt.Sprintf("attempt %d", attempts), errors.New("still failing")
	}, func(error) bool { return true })

	if err == nil {
		t.Fatal("expected error")
	}
	if got != "attempt 3" {
		t.Errorf("got %q, want %q", got, "attempt 3")
	}
}

func TestRetryWithCheck_StopsWhenNotRetryable(t *testing.T) {
	attempts := 0
	_, err := RetryWithCheck(context.Background(), testRetryConfig(), func() (int, error) {
		attempts++
		return 0, sniff.ErrInvalidImage
	}, Retryable)

	if !errors.Is(err, sniff.ErrInvalidImage) {
		t.Errorf("err = %v, want %v", err, sniff.ErrInvalidImage)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryWithCheck_ContextCanceled(t *testing.T) {
	cfg := testRetryConfig()
	cfg.InitialDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := RetryWithCheck(ctx, cfg, func() (int, error) {
		return 0, errors.New("transient")
	}, func(error) bool { return true })

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"network error", domain.NewFetchError("u", "send request", io.ErrUnexpectedEOF), true},
		{"canceled", context.Canceled, false},
		{"invalid URL", fmt.Errorf("%w: ftp://x", domain.ErrInvalidURL), false},
		{"invalid image", sniff.ErrInvalidImage, false},
		{"unrecognized", sniff.ErrUnrecognizedFormat, false},
		{"truncated", sniff.ErrTruncated, false},
		{"not found", domain.NewFetchError("u", "open", &StatusError{Code: 404}), false},
		{"server error", domain.NewFetchError("u", "open", &StatusError{Code: 503}), true},
		{"rate limited", &StatusError{Code: 429}, true},
		{"request timeout", &StatusError{Code: 408}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
