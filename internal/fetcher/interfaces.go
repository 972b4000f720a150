package fetcher

import (
	"context"
	"io"

	"github.com/iconidentify/imgsniff/internal/domain"
)

// Fetcher probes remote images for their format and size.
type Fetcher interface {
	// Batch probes every URL and returns one result per distinct URL.
	// Per-URL failures are reported in the results, never as an error.
	Batch(ctx context.Context, urls []string) (*domain.BatchResult, error)

	// ProbeOne probes a single URL.
	ProbeOne(ctx context.Context, url string) *domain.FetchResult
}

// Opener starts a GET request and returns once the response headers arrive.
// Cancelling ctx aborts the transfer.
type Opener interface {
	Open(ctx context.Context, url string) (*Response, error)
}

// Response is an open image response.
// Caller is responsible for closing Body.
type Response struct {
	Body       io.ReadCloser
	StatusCode int
	// ContentLength is the raw Content-Length header, "" when absent.
	ContentLength string
}
