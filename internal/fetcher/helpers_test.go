package fetcher

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iconidentify/imgsniff/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.FetchConfig {
	cfg := config.DefaultFetchConfig()
	cfg.Timeout = 2 * time.Second
	cfg.UserAgent = "test-agent"
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 5 * time.Millisecond
	return cfg
}

// pngImage returns a PNG header for w x h followed by padding up to total bytes.
func pngImage(w, h uint32, total int) []byte {
	b := make([]byte, 25)
	copy(b, "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	binary.BigEndian.PutUint32(b[16:], w)
	binary.BigEndian.PutUint32(b[20:], h)
	if total > len(b) {
		b = append(b, make([]byte, total-len(b))...)
	}
	return b
}

func gifImage(w, h uint16) []byte {
	b := []byte("GIF89a\x00\x00\x00\x00\x00")
	binary.LittleEndian.PutUint16(b[6:], w)
	binary.LittleEndian.PutUint16(b[8:], h)
	return b
}

// trackedBody serves data, optionally pausing before each read, and
// remembers whether it was closed.
type trackedBody struct {
	r      io.Reader
	delay  time.Duration
	read   atomic.Int64
	closed atomic.Bool
	onDone func()
	once   sync.Once
}

func (b *trackedBody) Read(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, errors.New("read on closed body")
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	n, err := b.r.Read(p)
	b.read.Add(int64(n))
	return n, err
}

func (b *trackedBody) Close() error {
	b.closed.Store(true)
	if b.onDone != nil {
		b.once.Do(b.onDone)
	}
	return nil
}

// fakeOpener serves canned bodies and tracks how many are open at once.
type fakeOpener struct {
	mu      sync.Mutex
	bodies  map[string][]byte
	errs    map[string]error
	hang    map[string]bool
	delay   time.Duration
	opened  map[string]*trackedBody
	active  atomic.Int32
	maxSeen atomic.Int32
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
		hang:   make(map[string]bool),
		opened: make(map[string]*trackedBody),
	}
}

func (f *fakeOpener) Open(ctx context.Context, url string) (*Response, error) {
	f.mu.Lock()
	data, ok := f.bodies[url]
	err := f.errs[url]
	hang := f.hang[url]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StatusError{Code: 404}
	}

	n := f.active.Add(1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	body := &trackedBody{
		r:      bytes.NewReader(data),
		delay:  f.delay,
		onDone: func() { f.active.Add(-1) },
	}
	f.mu.Lock()
	f.opened[url] = body
	f.mu.Unlock()

	return &Response{Body: body, StatusCode: 200, ContentLength: "1234"}, nil
}

func (f *fakeOpener) body(url string) *trackedBody {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened[url]
}
