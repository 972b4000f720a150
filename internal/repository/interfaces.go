package repository

import (
	"context"

	"github.com/iconidentify/imgsniff/internal/domain"
)

// ReportRepository handles probe report persistence.
type ReportRepository interface {
	// Save stores a finished report.
	Save(ctx context.Context, report *domain.Report) error

	// Get retrieves a report by ID.
	Get(ctx context.Context, id domain.ReportID) (*domain.Report, error)

	// List returns the most recent reports, newest first.
	List(ctx context.Context, limit int) ([]*domain.Report, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) (int, error)
}

// JobRepository manages the job queue.
type JobRepository interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Dequeue retrieves the next pending job (FIFO).
	Dequeue(ctx context.Context) (*domain.Job, error)

	// Update modifies job state.
	Update(ctx context.Context, job *domain.Job) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id domain.JobID) (*domain.Job, error)

	// ListPending returns all pending/retrying jobs.
	ListPending(ctx context.Context) ([]*domain.Job, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)
}

// QueueStats contains job queue statistics.
type QueueStats struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Retrying   int `json:"retrying"`
}
