package domain

import "time"

// ReportID is a unique identifier for a probe report.
type ReportID string

// String returns the string representation of the ReportID.
func (id ReportID) String() string {
	return string(id)
}

// Report records one completed batch probe.
type Report struct {
	ID         ReportID     `json:"id"`
	CreatedAt  time.Time    `json:"created_at"`
	DurationMS int64        `json:"duration_ms"`
	Summary    Summary      `json:"summary"`
	Results    *BatchResult `json:"results"`
}

// NewReport creates a report for a finished batch.
func NewReport(id ReportID, results *BatchResult, started time.Time) *Report {
	now := time.Now()
	return &Report{
		ID:         id,
		CreatedAt:  now,
		DurationMS: now.Sub(started).Milliseconds(),
		Summary:    results.Summary(),
		Results:    results,
	}
}
