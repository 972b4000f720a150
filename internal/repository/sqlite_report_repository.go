package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iconidentify/imgsniff/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteReportRepository implements ReportRepository on a SQLite file.
// Results are stored as JSON text in request order.
type SQLiteReportRepository struct {
	db *sql.DB
}

// NewSQLiteReportRepository opens (and if needed creates) the database at path.
func NewSQLiteReportRepository(path string) (*SQLiteReportRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			summary TEXT NOT NULL,
			results TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteReportRepository{db: db}, nil
}

// Close closes the database.
func (r *SQLiteReportRepository) Close() error {
	return r.db.Close()
}

// Save stores a finished report, replacing one with the same ID.
func (r *SQLiteReportRepository) Save(ctx context.Context, report *domain.Report) error {
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	results, err := json.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (id, created_at, duration_ms, summary, results)
		VALUES (?, ?, ?, ?, ?)
	`, report.ID.String(), report.CreatedAt.UnixNano(), report.DurationMS, string(summary), string(results))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Get retrieves a report by ID.
func (r *SQLiteReportRepository) Get(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, duration_ms, summary, results
		FROM reports WHERE id = ?
	`, id.String())

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// List returns the most recent reports, newest first.
func (r *SQLiteReportRepository) List(ctx context.Context, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, duration_ms, summary, results
		FROM reports
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// Count returns the number of stored reports.
func (r *SQLiteReportRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*domain.Report, error) {
	var (
		id        string
		createdAt int64
		report    domain.Report
		summary   string
		results   string
	)
	if err := s.Scan(&id, &createdAt, &report.DurationMS, &summary, &results); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	report.ID = domain.ReportID(id)
	report.CreatedAt = time.Unix(0, createdAt)
	if err := json.Unmarshal([]byte(summary), &report.Summary); err != nil {
		return nil, fmt.Errorf("decode summary for %s: %w", id, err)
	}
	report.Results = &domain.BatchResult{}
	if err := json.Unmarshal([]byte(results), report.Results); err != nil {
		return nil, fmt.Errorf("decode results for %s: %w", id, err)
	}
	return &report, nil
}
