package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/imgsniff/internal/domain"
)

const (
	maxRequestBody   = 1 << 20
	maxURLsPerBatch  = 1000
	defaultListLimit = 20
	maxListLimit     = 100
)

// ProbeService is the subset of the service layer used by ProbeHandler.
type ProbeService interface {
	Batch(ctx context.Context, urls []string) (*domain.Report, error)
	ProbeOne(ctx context.Context, url string) (*domain.FetchResult, error)
	GetReport(ctx context.Context, id domain.ReportID) (*domain.Report, error)
	ListReports(ctx context.Context, limit int) ([]*domain.Report, error)
	SubmitJob(ctx context.Context, urls []string) (*domain.Job, error)
	GetJob(ctx context.Context, id domain.JobID) (*domain.Job, error)
}

// ProbeHandler handles probe, report and job endpoints.
type ProbeHandler struct {
	svc    ProbeService
	logger *slog.Logger
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(svc ProbeService, logger *slog.Logger) *ProbeHandler {
	return &ProbeHandler{
		svc:    svc,
		logger: logger,
	}
}

// ProbeRequest is the body of POST /probe and POST /jobs.
type ProbeRequest struct {
	URLs []string `json:"urls"`
}

// JobResponse is returned when a job is queued.
type JobResponse struct {
	JobID  domain.JobID     `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// ReportListResponse is returned by GET /reports.
type ReportListResponse struct {
	Reports []*domain.Report `json:"reports"`
	Count   int              `json:"count"`
}

// Batch handles POST /api/v1/probe.
func (h *ProbeHandler) Batch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	report, err := h.svc.Batch(r.Context(), req.URLs)
	if err != nil {
		h.handleError(w, err, "batch probe failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ProbeOne handles GET /api/v1/probe?url=.
func (h *ProbeHandler) ProbeOne(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	result, err := h.svc.ProbeOne(r.Context(), u)
	if err != nil {
		h.handleError(w, err, "probe failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListReports handles GET /api/v1/reports.
func (h *ProbeHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	reports, err := h.svc.ListReports(r.Context(), limit)
	if err != nil {
		h.handleError(w, err, "list reports failed")
		return
	}
	if reports == nil {
		reports = []*domain.Report{}
	}

	writeJSON(w, http.StatusOK, ReportListResponse{
		Reports: reports,
		Count:   len(reports),
	})
}

// GetReport handles GET /api/v1/reports/{reportID}.
func (h *ProbeHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reportID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.svc.GetReport(r.Context(), domain.ReportID(id))
	if err != nil {
		h.handleError(w, err, "get report failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// SubmitJob handles POST /api/v1/jobs.
func (h *ProbeHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	job, err := h.svc.SubmitJob(r.Context(), req.URLs)
	if err != nil {
		h.handleError(w, err, "submit job failed")
		return
	}

	writeJSON(w, http.StatusAccepted, JobResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// GetJob handles GET /api/v1/jobs/{jobID}.
func (h *ProbeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.svc.GetJob(r.Context(), domain.JobID(id))
	if err != nil {
		h.handleError(w, err, "get job failed")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *ProbeHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*ProbeRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return nil, false
	}
	if len(req.URLs) > maxURLsPerBatch {
		writeError(w, http.StatusBadRequest, "too many urls")
		return nil, false
	}

	return &req, true
}

func (h *ProbeHandler) handleError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNoURLs):
		writeError(w, http.StatusBadRequest, "no urls to probe")
	case errors.Is(err, domain.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "report not found")
	case errors.Is(err, domain.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, context.Canceled):
		h.logger.Warn(msg, "error", err)
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
