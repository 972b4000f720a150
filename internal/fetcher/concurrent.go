package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/domain"
)

type eventKind int

const (
	eventOpened eventKind = iota
	eventChunk
	eventClosed
)

// event is sent from a transfer goroutine to the coordinating loop.
type event struct {
	kind eventKind
	idx  int
	// contentLength is set for eventOpened.
	contentLength string
	// data and reply are set for eventChunk. The coordinator answers on
	// reply with true to continue or false to stop.
	data  []byte
	reply chan<- bool
	// err is set for eventClosed; nil means the body reached EOF.
	err error
}

// Concurrent probes many URLs at once. A single coordinating goroutine owns
// every session; transfer goroutines read bodies and hand chunks to it.
type Concurrent struct {
	opener Opener
	cfg    config.FetchConfig
	logger *slog.Logger
}

// NewConcurrent creates a fetcher bounded by cfg.MaxConcurrent transfers in
// total and cfg.MaxPerHost per host.
func NewConcurrent(opener Opener, cfg config.FetchConfig, logger *slog.Logger) *Concurrent {
	return &Concurrent{
		opener: opener,
		cfg:    cfg,
		logger: logger,
	}
}

// Batch probes all urls and waits until each one is terminal. When ctx ends
// first, unfinished URLs fail with the context error.
func (c *Concurrent) Batch(ctx context.Context, urls []string) (*domain.BatchResult, error) {
	if len(urls) == 0 {
		return nil, domain.ErrNoURLs
	}

	started := time.Now()
	results := domain.NewBatchResult(urls)
	probes := make([]*probe, len(results.URLs))
	for i, u := range results.URLs {
		probes[i] = newProbe(u)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan event)
	limits := c.hostLimits(results.URLs)
	global := semaphore.NewWeighted(int64(c.cfg.MaxConcurrent))

	// Every URL gets a goroutine that waits for its host slot before it
	// competes for a global slot, so a saturated host never holds global
	// slots that other hosts could use.
	go func() {
		var g errgroup.Group
		for i, u := range results.URLs {
			if runCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				c.transfer(runCtx, i, u, limits[hostKey(u)], global, events)
				return nil
			})
		}
		g.Wait()
		close(events)
	}()

	for ev := range events {
		p := probes[ev.idx]
		switch ev.kind {
		case eventOpened:
			p.opened(ev.contentLength)
		case eventChunk:
			ev.reply <- !p.feed(ev.data)
		case eventClosed:
			if ev.err != nil {
				p.fail(ev.err)
			} else {
				p.finish()
			}
		}
	}

	for _, p := range probes {
		if !p.done {
			err := ctx.Err()
			if err == nil {
				err = errIncomplete
			}
			p.fail(err)
		}
		logProbe(c.logger, p)
		results.Set(p.url, p.result(c.cfg.CaptureContentLength))
	}

	logBatch(c.logger, results, started)
	return results, nil
}

// ProbeOne probes a single URL on the calling goroutine.
func (c *Concurrent) ProbeOne(ctx context.Context, url string) *domain.FetchResult {
	p := probeURL(ctx, c.opener, url, c.cfg.ReadBufferSize)
	logProbe(c.logger, p)
	return p.result(c.cfg.CaptureContentLength)
}

// transfer streams one body to the coordinator until it is told to stop or
// the body ends. Returning cancels the request and closes the body. The host
// slot is always taken before the global one.
func (c *Concurrent) transfer(ctx context.Context, idx int, url string, host, global *semaphore.Weighted, events chan<- event) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	send := func(ev event) bool {
		ev.idx = idx
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if err := host.Acquire(ctx, 1); err != nil {
		send(event{kind: eventClosed, err: err})
		return
	}
	defer host.Release(1)

	if err := global.Acquire(ctx, 1); err != nil {
		send(event{kind: eventClosed, err: err})
		return
	}
	defer global.Release(1)

	resp, err := c.opener.Open(ctx, url)
	if err != nil {
		send(event{kind: eventClosed, err: err})
		return
	}
	defer resp.Body.Close()

	if !send(event{kind: eventOpened, contentLength: resp.ContentLength}) {
		return
	}

	// buf is only reused after the coordinator has replied for the last chunk.
	buf := make([]byte, c.cfg.ReadBufferSize)
	reply := make(chan bool, 1)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if !send(event{kind: eventChunk, data: buf[:n], reply: reply}) {
				return
			}
			select {
			case more := <-reply:
				if !more {
					return
				}
			case <-ctx.Done():
				return
			}
		}
		if err == io.EOF {
			send(event{kind: eventClosed})
			return
		}
		if err != nil {
			send(event{kind: eventClosed, err: domain.NewFetchError(url, "read body", err)})
			return
		}
	}
}

// hostLimits returns one semaphore per distinct host in urls.
func (c *Concurrent) hostLimits(urls []string) map[string]*semaphore.Weighted {
	limits := make(map[string]*semaphore.Weighted)
	for _, u := range urls {
		key := hostKey(u)
		if _, ok := limits[key]; !ok {
			limits[key] = semaphore.NewWeighted(int64(c.cfg.MaxPerHost))
		}
	}
	return limits
}

func hostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
