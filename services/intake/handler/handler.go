// Package handler exposes the intake REST API: inbound voice/SMS/WhatsApp
// webhooks plus task, worker and dashboard endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hameedsk381/voice-task-ai/internal/classifier"
	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/escalation"
	"github.com/hameedsk381/voice-task-ai/internal/orchestrator"
	redisstore "github.com/hameedsk381/voice-task-ai/internal/redis"
)

// Core is the slice of the orchestrator the handlers call. *orchestrator.Service
// satisfies it; tests substitute a fake.
type Core interface {
	CreateTask(ctx context.Context, in orchestrator.CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, tenantID string, status *domain.Status, limit int) ([]*domain.Task, error)
	SetStatus(ctx context.Context, taskID string, status domain.Status) (*domain.Task, error)
	Escalate(ctx context.Context, taskID, reason string) (*domain.Task, error)
	LiveStatus(ctx context.Context, taskID string) (domain.Status, error)
	AssignManual(ctx context.Context, taskID, workerID string) (*domain.Task, error)
	AssignAuto(ctx context.Context, taskID string) (*domain.Task, *domain.Worker, error)
	Complete(ctx context.Context, taskID string, rating *float64) error

	RegisterWorker(ctx context.Context, in orchestrator.RegisterWorkerInput) (*domain.Worker, error)
	GetWorker(ctx context.Context, id string) (*domain.Worker, error)
	ListWorkers(ctx context.Context, tenantID string, status *domain.WorkerStatus, skill string) ([]*domain.Worker, error)
	UpdateWorker(ctx context.Context, id string, in orchestrator.UpdateWorkerInput) (*domain.Worker, error)
	RemoveWorker(ctx context.Context, id string) error
	WorkerStats(ctx context.Context, tenantID string) (*domain.WorkerStats, error)

	Dashboard(ctx context.Context, tenantID string) (*orchestrator.DashboardStats, error)
	ListFailures(ctx context.Context, limit int) ([]*domain.FailureLogEntry, error)
	RecordFailure(ctx context.Context, tenantID, phone, message string)
}

// Handler serves the intake REST API.
type Handler struct {
	core       Core
	classifier classifier.Classifier
	policy     *escalation.Policy
	limiter    redisstore.RateLimiter
	logger     *slog.Logger
}

// New creates a Handler.
func New(core Core, cls classifier.Classifier, policy *escalation.Policy, limiter redisstore.RateLimiter, logger *slog.Logger) *Handler {
	return &Handler{core: core, classifier: cls, policy: policy, limiter: limiter, logger: logger}
}

// Routes builds the chi router for the API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/inbound", h.Inbound)
		r.Post("/voice/inbound", h.inboundFor("voice"))
		r.Post("/sms/inbound", h.inboundFor("sms"))
		r.Post("/whatsapp/inbound", h.inboundFor("whatsapp"))

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", h.CreateTask)
			r.Get("/", h.ListTasks)
			r.Get("/{id}", h.GetTask)
			r.Get("/{id}/status", h.TaskStatus)
			r.Patch("/{id}/status", h.SetTaskStatus)
			r.Post("/{id}/escalate", h.EscalateTask)
			r.Post("/{id}/assign", h.AssignTask)
			r.Post("/{id}/complete", h.CompleteTask)
		})

		r.Route("/workers", func(r chi.Router) {
			r.Post("/", h.RegisterWorker)
			r.Get("/", h.ListWorkers)
			r.Get("/stats", h.WorkerStats)
			r.Get("/{id}", h.GetWorker)
			r.Patch("/{id}", h.UpdateWorker)
			r.Delete("/{id}", h.DeleteWorker)
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/failures", h.ListFailures)
	})
	return r
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz — checks Redis via the rate limiter.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.limiter.Allow(r.Context(), "__readyz__"); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis not ready")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// tenantID extracts the tenant from the X-Tenant-ID header.
func tenantID(r *http.Request) string {
	return r.Header.Get("X-Tenant-ID")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP status codes. Unknown errors
// become an opaque 500 so internals never leak to callers.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr  *domain.ValidationError
		nfErr *domain.NotFoundError
		cErr  *domain.ConflictError
		capE  *domain.CapacityError
		tErr  *domain.InvalidTransitionError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &cErr), errors.As(err, &capE), errors.As(err, &tErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nfErr):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		h.core.RecordFailure(r.Context(), tenantID(r), "", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
