package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/domain"
)

// Serial probes URLs one at a time.
type Serial struct {
	opener Opener
	cfg    config.FetchConfig
	logger *slog.Logger
}

// NewSerial creates a fetcher that never overlaps transfers.
func NewSerial(opener Opener, cfg config.FetchConfig, logger *slog.Logger) *Serial {
	return &Serial{
		opener: opener,
		cfg:    cfg,
		logger: logger,
	}
}

// Batch probes urls in order.
func (s *Serial) Batch(ctx context.Context, urls []string) (*domain.BatchResult, error) {
	if len(urls) == 0 {
		return nil, domain.ErrNoURLs
	}

	started := time.Now()
	results := domain.NewBatchResult(urls)
	for _, u := range results.URLs {
		results.Set(u, s.ProbeOne(ctx, u))
	}

	logBatch(s.logger, results, started)
	return results, nil
}

// ProbeOne probes a single URL.
func (s *Serial) ProbeOne(ctx context.Context, url string) *domain.FetchResult {
	p := probeURL(ctx, s.opener, url, s.cfg.ReadBufferSize)
	logProbe(s.logger, p)
	return p.result(s.cfg.CaptureContentLength)
}

func logProbe(logger *slog.Logger, p *probe) {
	logger.Debug("probe finished",
		"url", p.url,
		"format", string(p.session.Format()),
		"bytes", p.session.Bytes(),
		"rounds", p.session.Rounds(),
		"aborted", p.aborted,
		"error", p.err,
	)
}

func logBatch(logger *slog.Logger, results *domain.BatchResult, started time.Time) {
	summary := results.Summary()
	logger.Info("batch probed",
		"urls", summary.Total,
		"resolved", summary.Resolved,
		"failed", summary.Failed,
		"invalid", summary.Invalid,
		"bytes", summary.Bytes,
		"duration", time.Since(started),
	)
}
