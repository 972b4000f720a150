package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/iconidentify/imgsniff/internal/domain"
	"github.com/iconidentify/imgsniff/internal/repository"
	"github.com/iconidentify/imgsniff/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingJobRepository fails Stats and panics on anything else.
type failingJobRepository struct {
	repository.JobRepository
	err error
}

func (f *failingJobRepository) Stats(ctx context.Context) (*repository.QueueStats, error) {
	return nil, f.err
}

type mockStatsProvider struct {
	stats *service.Stats
	err   error
}

func (m *mockStatsProvider) Stats(ctx context.Context) (*service.Stats, error) {
	return m.stats, m.err
}

// mockProbeService is a test implementation of ProbeService.
type mockProbeService struct {
	mu sync.Mutex

	report    *domain.Report
	result    *domain.FetchResult
	reports   map[domain.ReportID]*domain.Report
	jobs      map[domain.JobID]*domain.Job
	err       error
	gotURLs   []string
	gotURL    string
	gotLimit  int
	submitted int
}

func newMockProbeService() *mockProbeService {
	return &mockProbeService{
		reports: make(map[domain.ReportID]*domain.Report),
		jobs:    make(map[domain.JobID]*domain.Job),
	}
}

func (m *mockProbeService) Batch(ctx context.Context, urls []string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotURLs = urls
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockProbeService) ProbeOne(ctx context.Context, url string) (*domain.FetchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotURL = url
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockProbeService) GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return r, nil
}

func (m *mockProbeService) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Report
	for _, r := range m.reports {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockProbeService) SubmitJob(ctx context.Context, urls []string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotURLs = urls
	if m.err != nil {
		return nil, m.err
	}
	m.submitted++
	job := domain.NewJob("job_test", urls, 2)
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockProbeService) GetJob(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}
