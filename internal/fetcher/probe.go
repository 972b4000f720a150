package fetcher

import (
	"context"
	"errors"
	"io"

	"github.com/iconidentify/imgsniff/internal/domain"
	"github.com/iconidentify/imgsniff/internal/sniff"
)

// errIncomplete marks a transfer that ended without a terminal outcome.
var errIncomplete = errors.New("transfer did not complete")

// probe tracks one URL through a fetch.
type probe struct {
	url           string
	session       *sniff.Session
	contentLength *string
	err           error
	done          bool
	aborted       bool
}

func newProbe(url string) *probe {
	return &probe{url: url, session: sniff.NewSession()}
}

func (p *probe) opened(contentLength string) {
	if contentLength != "" {
		p.contentLength = &contentLength
	}
}

// feed passes a chunk to the session and reports whether the transfer can stop.
func (p *probe) feed(chunk []byte) bool {
	if p.session.Feed(chunk).Terminal() {
		p.done = true
		p.aborted = true
	}
	return p.done
}

// finish ends the probe at body EOF.
func (p *probe) finish() {
	p.session.Finish()
	p.done = true
}

func (p *probe) fail(err error) {
	p.err = err
	p.done = true
}

// result maps the probe onto its reported form.
func (p *probe) result(captureContentLength bool) *domain.FetchResult {
	r := &domain.FetchResult{
		Bytes:  p.session.Bytes(),
		Rounds: p.session.Rounds(),
	}
	if captureContentLength {
		r.ContentLength = p.contentLength
	}

	if p.err != nil {
		return withFailure(r, domain.TypeFailed, p.err)
	}

	out := p.session.Outcome()
	switch out.Kind {
	case sniff.Resolved:
		r.Type = string(out.Format)
		r.Size = &domain.Dimensions{Width: out.Size.Width, Height: out.Size.Height}
		return r
	case sniff.Invalid:
		if errors.Is(out.Err, sniff.ErrInvalidImage) {
			return withFailure(r, domain.TypeInvalid, out.Err)
		}
		return withFailure(r, domain.TypeFailed, out.Err)
	}
	return withFailure(r, domain.TypeFailed, errIncomplete)
}

func withFailure(r *domain.FetchResult, typ string, err error) *domain.FetchResult {
	reason := err.Error()
	r.Type = typ
	r.FailureReason = &reason
	r.Err = err
	return r
}

// probeURL runs one URL to completion on the calling goroutine. The
// transfer stops as soon as the session is terminal.
func probeURL(ctx context.Context, opener Opener, url string, bufSize int) *probe {
	p := newProbe(url)
	if err := ctx.Err(); err != nil {
		p.fail(err)
		return p
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := opener.Open(ctx, url)
	if err != nil {
		p.fail(err)
		return p
	}
	defer resp.Body.Close()
	p.opened(resp.ContentLength)

	buf := make([]byte, bufSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 && p.feed(buf[:n]) {
			return p
		}
		if err == io.EOF {
			p.finish()
			return p
		}
		if err != nil {
			p.fail(domain.NewFetchError(url, "read body", err))
			return p
		}
	}
}
