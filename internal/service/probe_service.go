package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/domain"
	"github.com/iconidentify/imgsniff/internal/fetcher"
	"github.com/iconidentify/imgsniff/internal/repository"
)

// ProbeService validates probe requests, runs the fetcher and keeps reports.
type ProbeService struct {
	fetcher   fetcher.Fetcher
	reports   repository.ReportRepository
	jobs      repository.JobRepository
	retry     fetcher.RetryConfig
	workerCfg config.WorkerConfig
	logger    *slog.Logger

	inflight singleflight.Group
}

// NewProbeService creates a new probe service.
func NewProbeService(
	f fetcher.Fetcher,
	reports repository.ReportRepository,
	jobs repository.JobRepository,
	fetchCfg config.FetchConfig,
	workerCfg config.WorkerConfig,
	logger *slog.Logger,
) *ProbeService {
	return &ProbeService{
		fetcher:   f,
		reports:   reports,
		jobs:      jobs,
		retry:     fetcher.RetryConfigFrom(fetchCfg),
		workerCfg: workerCfg,
		logger:    logger,
	}
}

// Stats summarises stored reports and the job queue.
type Stats struct {
	Reports int                   `json:"reports"`
	Queue   repository.QueueStats `json:"queue"`
}

// Batch probes urls and stores the resulting report. Malformed URLs get a
// failed result instead of aborting the batch.
func (s *ProbeService) Batch(ctx context.Context, urls []string) (*domain.Report, error) {
	started := time.Now()

	cleaned := cleanURLs(urls)
	if len(cleaned) == 0 {
		return nil, domain.ErrNoURLs
	}

	results := domain.NewBatchResult(cleaned)
	var valid []string
	for _, u := range results.URLs {
		if err := ValidateURL(u); err != nil {
			results.Set(u, invalidURLResult(err))
			continue
		}
		valid = append(valid, u)
	}

	if len(valid) > 0 {
		fetched, err := s.fetcher.Batch(ctx, valid)
		if err != nil {
			return nil, fmt.Errorf("probe batch: %w", err)
		}
		for _, u := range fetched.URLs {
			if r, ok := fetched.Get(u); ok {
				results.Set(u, r)
			}
		}
	}

	s.retryFailures(ctx, results)

	report := domain.NewReport(newReportID(), results, started)
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.logger.Info("report saved",
		"report_id", report.ID,
		"urls", report.Summary.Total,
		"resolved", report.Summary.Resolved,
		"duration_ms", report.DurationMS,
	)
	return report, nil
}

// ProbeOne probes a single URL. Concurrent calls for the same URL share
// one transfer, made with the context of the first caller.
func (s *ProbeService) ProbeOne(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return nil, domain.ErrNoURLs
	}
	if err := ValidateURL(u); err != nil {
		return nil, err
	}

	v, _, shared := s.inflight.Do(u, func() (any, error) {
		r := s.fetcher.ProbeOne(ctx, u)
		if r.Type == domain.TypeFailed && fetcher.Retryable(r.Err) {
			r = s.reprobe(ctx, u, r)
		}
		return r, nil
	})
	if shared {
		s.logger.Debug("probe shared with concurrent caller", "url", u)
	}
	return v.(*domain.FetchResult), nil
}

// GetReport retrieves a stored report.
func (s *ProbeService) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	return s.reports.Get(ctx, id)
}

// ListReports returns the newest reports.
func (s *ProbeService) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	return s.reports.List(ctx, limit)
}

// SubmitJob queues urls for a background batch.
func (s *ProbeService) SubmitJob(ctx context.Context, urls []string) (*domain.Job, error) {
	cleaned := cleanURLs(urls)
	if len(cleaned) == 0 {
		return nil, domain.ErrNoURLs
	}

	job := domain.NewJob(domain.JobID("job_"+uuid.New().String()[:8]), cleaned, s.workerCfg.MaxRetries)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("job queued", "job_id", job.ID, "urls", len(cleaned))
	return job, nil
}

// GetJob retrieves a queued or finished job.
func (s *ProbeService) GetJob(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	return s.jobs.Get(ctx, id)
}

// ProcessJob runs the batch for a dequeued job.
func (s *ProbeService) ProcessJob(ctx context.Context, job *domain.Job) (*domain.Report, error) {
	return s.Batch(ctx, job.URLs)
}

// Stats returns report and queue counts.
func (s *ProbeService) Stats(ctx context.Context) (*Stats, error) {
	count, err := s.reports.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	queue, err := s.jobs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return &Stats{Reports: count, Queue: *queue}, nil
}

// retryFailures re-probes retryable failures in rounds when retries are
// enabled. Each round is a fetcher batch, so the global and per-host limits
// apply to retries as well.
func (s *ProbeService) retryFailures(ctx context.Context, results *domain.BatchResult) {
	delay := s.retry.InitialDelay
	for attempt := 2; attempt <= s.retry.MaxAttempts; attempt++ {
		pending := retryCandidates(results)
		if len(pending) == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		retried, err := s.fetcher.Batch(ctx, pending)
		if err != nil {
			s.logger.Warn("retry batch failed", "attempt", attempt, "urls", len(pending), "error", err)
			return
		}
		for _, u := range retried.URLs {
			r, ok := retried.Get(u)
			// A round cut short by ctx keeps the earlier failure.
			if !ok || (r.Type == domain.TypeFailed && ctx.Err() != nil) {
				continue
			}
			results.Set(u, r)
		}
		s.logger.Debug("retry round finished", "attempt", attempt, "urls", len(pending))

		delay = min(time.Duration(float64(delay)*s.retry.BackoffFactor), s.retry.MaxDelay)
	}
}

func retryCandidates(results *domain.BatchResult) []string {
	var urls []string
	for _, u := range results.URLs {
		if r, ok := results.Get(u); ok && r.Type == domain.TypeFailed && fetcher.Retryable(r.Err) {
			urls = append(urls, u)
		}
	}
	return urls
}

// reprobe retries a failed URL, returning the last result obtained.
func (s *ProbeService) reprobe(ctx context.Context, u string, first *domain.FetchResult) *domain.FetchResult {
	cfg := s.retry
	cfg.MaxAttempts--
	if cfg.MaxAttempts <= 0 {
		return first
	}

	select {
	case <-ctx.Done():
		return first
	case <-time.After(cfg.InitialDelay):
	}

	r, err := fetcher.RetryWithCheck(ctx, cfg, func() (*domain.FetchResult, error) {
		r := s.fetcher.ProbeOne(ctx, u)
		if r.Type == domain.TypeFailed {
			return r, r.Err
		}
		return r, nil
	}, fetcher.Retryable)
	if r == nil {
		return first
	}
	if err != nil {
		s.logger.Warn("probe failed after retries", "url", u, "attempts", s.retry.MaxAttempts, "error", err)
	}
	return r
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return nil
}

func cleanURLs(urls []string) []string {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return cleaned
}

func invalidURLResult(err error) *domain.FetchResult {
	r := domain.NewFailedResult(err.Error())
	r.Err = err
	return r
}

func newReportID() domain.ReportID {
	return domain.ReportID("rep_" + uuid.New().String())
}
