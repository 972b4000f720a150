package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iconidentify/imgsniff/internal/domain"
)

// InMemoryReportRepository implements ReportRepository using in-memory storage.
type InMemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[domain.ReportID]*domain.Report
	order   []domain.ReportID // insertion order, oldest first
	max     int
}

// NewInMemoryReportRepository creates a repository that keeps at most max
// reports, dropping the oldest. A max of zero keeps everything.
func NewInMemoryReportRepository(max int) *InMemoryReportRepository {
	return &InMemoryReportRepository{
		reports: make(map[domain.ReportID]*domain.Report),
		max:     max,
	}
}

// Save stores a finished report.
func (r *InMemoryReportRepository) Save(ctx context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reports[report.ID]; !ok {
		r.order = append(r.order, report.ID)
	}
	r.reports[report.ID] = report

	for r.max > 0 && len(r.order) > r.max {
		delete(r.reports, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

// Get retrieves a report by ID.
func (r *InMemoryReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

// List returns the most recent reports, newest first.
func (r *InMemoryReportRepository) List(ctx context.Context, limit int) ([]*domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Report, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.reports[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the number of stored reports.
func (r *InMemoryReportRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.reports), nil
}
