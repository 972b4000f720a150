package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/domain"
	"github.com/iconidentify/imgsniff/internal/sniff"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// RetryConfigFrom builds a RetryConfig from the fetch settings.
func RetryConfigFrom(cfg config.FetchConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts:   cfg.RetryAttempts,
		InitialDelay:  cfg.RetryDelay,
		MaxDelay:      cfg.MaxRetryDelay,
		BackoffFactor: 2.0,
	}
}

// RetryWithCheck executes fn with exponential backoff while shouldRetry
// accepts its error. The last result is returned with the last error so
// callers can still report what the final attempt produced.
func RetryWithCheck[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	var last T
	var lastErr error

	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		last, lastErr = result, err

		// Check if we should retry this error
		if !shouldRetry(err) {
			break
		}

		// Don't wait after the last attempt
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return last, lastErr
}

// Retryable reports whether a failed probe may succeed when tried again.
// Bad image data and client errors are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrInvalidURL) {
		return false
	}
	if errors.Is(err, sniff.ErrInvalidImage) ||
		errors.Is(err, sniff.ErrUnrecognizedFormat) ||
		errors.Is(err, sniff.ErrTruncated) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 ||
			statusErr.Code == http.StatusTooManyRequests ||
			statusErr.Code == http.StatusRequestTimeout
	}
	return true
}
