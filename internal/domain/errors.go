package domain

import "errors"

// Domain errors.
var (
	// ErrNoURLs is returned when a probe request carries no URLs.
	ErrNoURLs = errors.New("no URLs provided")

	// ErrInvalidURL is returned when a URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnexpectedStatus is returned when the image host answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrReportNotFound is returned when a probe report cannot be found.
	ErrReportNotFound = errors.New("report not found")

	// ErrJobNotFound is returned when a job cannot be found.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobs is returned when there are no jobs to process.
	ErrNoJobs = errors.New("no jobs available")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// FetchError wraps an error with the URL it happened on.
type FetchError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(url, op string, err error) *FetchError {
	return &FetchError{
		URL: url,
		Op:  op,
		Err: err,
	}
}
