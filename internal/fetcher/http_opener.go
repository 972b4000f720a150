package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/domain"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", domain.ErrUnexpectedStatus, e.Code)
}

// Is makes errors.Is(err, domain.ErrUnexpectedStatus) hold.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrUnexpectedStatus
}

// HTTPOpener implements Opener using net/http.
type HTTPOpener struct {
	client    *http.Client
	userAgent string
}

// NewHTTPOpener creates an opener whose requests are bounded by cfg.Timeout.
func NewHTTPOpener(cfg config.FetchConfig) *HTTPOpener {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConnsPerHost:   cfg.MaxPerHost,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPOpener{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Open sends a GET for url. Non-2xx responses are closed and returned as
// a *StatusError.
func (o *HTTPOpener) Open(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewFetchError(url, "create request", err)
	}

	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(url, "send request", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, domain.NewFetchError(url, "open", &StatusError{Code: resp.StatusCode})
	}

	cl := resp.Header.Get("Content-Length")
	if cl == "" && resp.ContentLength >= 0 {
		cl = strconv.FormatInt(resp.ContentLength, 10)
	}

	return &Response{
		Body:          resp.Body,
		StatusCode:    resp.StatusCode,
		ContentLength: cl,
	}, nil
}

// CloseIdleConnections closes connections kept alive for reuse.
func (o *HTTPOpener) CloseIdleConnections() {
	o.client.CloseIdleConnections()
}
