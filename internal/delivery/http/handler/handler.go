package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/user/internfinder/internal/delivery/http/request"
	"github.com/user/internfinder/internal/delivery/http/response"
	"github.com/user/internfinder/internal/entity"
	"github.com/user/internfinder/internal/repository"
	"go.uber.org/zap"
)

// CrawlTrigger enqueues crawl jobs on demand.
type CrawlTrigger interface {
	Enqueue(ctx context.Context, p entity.Provider) (*entity.CrawlJob, error)
	RunOnce(ctx context.Context) int
}

// FailedJobLister reads the most recent dead-lettered jobs.
type FailedJobLister interface {
	Failed(ctx context.Context, limit int64) ([]entity.FailedJob, error)
}

// HealthCheck pings one backing service.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	trigger  CrawlTrigger
	statuses repository.StatusRepository
	failed   FailedJobLister
	checks   []HealthCheck
	logger   *zap.Logger
}

func NewHandler(trigger CrawlTrigger, statuses repository.StatusRepository, failed FailedJobLister, checks []HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		trigger:  trigger,
		statuses: statuses,
		failed:   failed,
		checks:   checks,
		logger:   logger,
	}
}

func (h *Handler) HandleTriggerCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.TriggerCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.EqualFold(strings.TrimSpace(req.Provider), "all") {
		n := h.trigger.RunOnce(r.Context())
		if n == 0 {
			h.writeJSONError(w, "No crawl job could be enqueued", http.StatusServiceUnavailable)
			return
		}
		h.writeJSON(w, http.StatusAccepted, response.TriggerCrawlResponse{
			Status:   "accepted",
			Message:  "Crawl jobs enqueued",
			Enqueued: n,
		})
		return
	}

	p, err := entity.ParseProvider(req.Provider)
	if err != nil {
		h.writeJSONError(w, "Unknown provider: "+req.Provider, http.StatusBadRequest)
		return
	}
	job, err := h.trigger.Enqueue(r.Context(), p)
	if err != nil {
		h.logger.Error("Failed to enqueue crawl job", zap.String("provider", p.String()), zap.Error(err))
		h.writeJSONError(w, "Failed to enqueue crawl job", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusAccepted, response.TriggerCrawlResponse{
		Status:   "accepted",
		Message:  "Crawl job enqueued for " + p.String(),
		Enqueued: 1,
		JobID:    job.ID,
	})
}

// HandleGetCrawlStatus returns one provider's status, or every recorded one
// when no provider is given.
func (h *Handler) HandleGetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("provider")
	if name == "" {
		out := []response.CrawlStatusResponse{}
		for _, p := range entity.Providers() {
			status, err := h.statuses.Get(r.Context(), p)
			if errors.Is(err, repository.ErrStatusNotFound) {
				continue
			}
			if err != nil {
				h.logger.Error("Failed to get crawl status", zap.String("provider", p.String()), zap.Error(err))
				h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			out = append(out, toStatusResponse(status))
		}
		h.writeJSON(w, http.StatusOK, out)
		return
	}

	p, err := entity.ParseProvider(name)
	if err != nil {
		h.writeJSONError(w, "Unknown provider: "+name, http.StatusBadRequest)
		return
	}
	status, err := h.statuses.Get(r.Context(), p)
	if errors.Is(err, repository.ErrStatusNotFound) {
		h.writeJSONError(w, "No crawl recorded for "+p.String(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get crawl status", zap.String("provider", p.String()), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, toStatusResponse(status))
}

func (h *Handler) HandleListFailedJobs(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	jobs, err := h.failed.Failed(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list failed jobs", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	out := make([]response.FailedJobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, response.FailedJobResponse{
			JobID:    j.Job.ID,
			Provider: j.Job.Provider.String(),
			Attempt:  j.Job.Attempt,
			Reason:   j.Reason,
			FailedAt: j.FailedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	code := http.StatusOK
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", c.Name), zap.Error(err))
			resp.Checks[c.Name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	h.writeJSON(w, code, resp)
}

func toStatusResponse(s *entity.CrawlStatus) response.CrawlStatusResponse {
	return response.CrawlStatusResponse{
		Provider:      s.Provider.String(),
		CurrentStatus: s.CurrentStatus,
		JobID:         s.JobID,
		LastRunAt:     s.LastRunAt,
		LastSuccessAt: s.LastSuccessAt,
		Extracted:     s.Extracted,
		Inserted:      s.Inserted,
		Duplicates:    s.Duplicates,
		FailureReason: s.FailureReason,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
