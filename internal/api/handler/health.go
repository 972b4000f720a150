package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/imgsniff/internal/repository"
	"github.com/iconidentify/imgsniff/internal/service"
)

var startTime = time.Now()

// StatsProvider reports service level counters.
type StatsProvider interface {
	Stats(ctx context.Context) (*service.Stats, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	jobRepo  repository.JobRepository
	stats    StatsProvider
	dataPath string
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler. dataPath is the directory
// whose disk usage is reported by Stats; leave it empty to skip disk stats.
func NewHealthHandler(jobRepo repository.JobRepository, stats StatsProvider, dataPath string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		jobRepo:  jobRepo,
		stats:    stats,
		dataPath: dataPath,
		logger:   logger,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Queue     *repository.QueueStats `json:"queue,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Check job repository is accessible
	stats, err := h.jobRepo.Stats(ctx)
	if err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Queue:     stats,
	})
}

// SystemStats contains system resource statistics.
type SystemStats struct {
	Uptime         int64          `json:"uptime_seconds"`
	UptimeHuman    string         `json:"uptime_human"`
	MemAlloc       uint64         `json:"mem_alloc_bytes"`
	MemAllocHuman  string         `json:"mem_alloc_human"`
	MemSys         uint64         `json:"mem_sys_bytes"`
	NumGoroutines  int            `json:"num_goroutines"`
	NumCPU         int            `json:"num_cpu"`
	DataPath       string         `json:"data_path,omitempty"`
	DiskTotalBytes uint64         `json:"disk_total_bytes,omitempty"`
	DiskFreeBytes  uint64         `json:"disk_free_bytes,omitempty"`
	DiskFreeHuman  string         `json:"disk_free_human,omitempty"`
	Service        *service.Stats `json:"service"`
}

// Stats handles GET /api/v1/stats - system statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	svcStats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to collect stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAlloc:      m.Alloc,
		MemAllocHuman: humanize.IBytes(m.Alloc),
		MemSys:        m.Sys,
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		Service:       svcStats,
	}

	if h.dataPath != "" {
		stats.DataPath = h.dataPath
		if total, free, ok := diskUsage(h.dataPath); ok {
			stats.DiskTotalBytes = total
			stats.DiskFreeBytes = free
			stats.DiskFreeHuman = humanize.IBytes(free)
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
