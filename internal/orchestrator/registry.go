package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

// RegisterWorkerInput describes a new service provider.
type RegisterWorkerInput struct {
	TenantID string
	Name     string
	Phone    string
	Skills   []string
	// MaxTasks zero or negative falls back to the configured default.
	MaxTasks int
}

func (in *RegisterWorkerInput) validate() error {
	switch {
	case in.TenantID == "":
		return &domain.ValidationError{Field: "tenant_id", Reason: "required"}
	case in.Name == "":
		return &domain.ValidationError{Field: "name", Reason: "required"}
	case in.Phone == "":
		return &domain.ValidationError{Field: "phone", Reason: "required"}
	case len(in.Skills) == 0:
		return &domain.ValidationError{Field: "skills", Reason: "at least one skill required"}
	}
	return nil
}

// RegisterWorker adds a worker to the tenant's pool. The phone number must be
// unique within the tenant; a duplicate returns a ConflictError.
func (s *Service) RegisterWorker(ctx context.Context, in RegisterWorkerInput) (*domain.Worker, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	maxTasks := in.MaxTasks
	if maxTasks <= 0 {
		maxTasks = s.cfg.DefaultMaxTasks
	}

	now := s.now()
	worker := &domain.Worker{
		ID:        uuid.New().String(),
		TenantID:  in.TenantID,
		Name:      in.Name,
		Phone:     in.Phone,
		Skills:    in.Skills,
		Status:    domain.WorkerAvailable,
		MaxTasks:  maxTasks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateWorker(ctx, worker); err != nil {
		return nil, err
	}

	s.logger.Info("worker registered",
		slog.String("worker_id", worker.ID),
		slog.String("tenant_id", worker.TenantID),
		slog.Int("max_tasks", worker.MaxTasks),
	)
	return worker, nil
}

// UpdateWorkerInput holds a partial worker update; nil fields are unchanged.
type UpdateWorkerInput struct {
	Name     *string
	Phone    *string
	Skills   []string
	Status   *domain.WorkerStatus
	MaxTasks *int
}

// UpdateWorker applies a partial update to a worker.
func (s *Service) UpdateWorker(ctx context.Context, id string, in UpdateWorkerInput) (*domain.Worker, error) {
	worker, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		worker.Name = *in.Name
	}
	if in.Phone != nil {
		if *in.Phone == "" {
			return nil, &domain.ValidationError{Field: "phone", Reason: "must not be empty"}
		}
		worker.Phone = *in.Phone
	}
	if in.Skills != nil {
		if len(in.Skills) == 0 {
			return nil, &domain.ValidationError{Field: "skills", Reason: "at least one skill required"}
		}
		worker.Skills = in.Skills
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, &domain.ValidationError{Field: "status", Reason: "unknown worker status"}
		}
		worker.Status = *in.Status
	}
	if in.MaxTasks != nil {
		switch {
		case *in.MaxTasks < 1:
			return nil, &domain.ValidationError{Field: "max_tasks", Reason: "must be at least 1"}
		case *in.MaxTasks < worker.CurrentTasks:
			return nil, &domain.ValidationError{
				Field:  "max_tasks",
				Reason: fmt.Sprintf("cannot drop below the current load of %d", worker.CurrentTasks),
			}
		}
		worker.MaxTasks = *in.MaxTasks
	}

	worker.UpdatedAt = s.now()
	if err := s.store.UpdateWorker(ctx, worker); err != nil {
		return nil, err
	}
	return worker, nil
}

// RemoveWorker deletes a worker. Workers still holding active tasks are
// protected by a ConflictError so assignments never dangle.
func (s *Service) RemoveWorker(ctx context.Context, id string) error {
	worker, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return err
	}
	if worker.CurrentTasks > 0 {
		return &domain.ConflictError{
			Reason: fmt.Sprintf("worker %s still has %d active tasks", worker.Name, worker.CurrentTasks),
		}
	}
	if err := s.store.DeleteWorker(ctx, id); err != nil {
		return err
	}

	s.logger.Info("worker removed", slog.String("worker_id", id))
	return nil
}

// GetWorker returns one worker by ID.
func (s *Service) GetWorker(ctx context.Context, id string) (*domain.Worker, error) {
	return s.store.GetWorker(ctx, id)
}

// ListWorkers returns the tenant's workers ordered by name, optionally
// filtered by status and by skill membership. An empty skill matches all.
func (s *Service) ListWorkers(ctx context.Context, tenantID string, status *domain.WorkerStatus, skill string) ([]*domain.Worker, error) {
	if status != nil && !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown worker status"}
	}
	return s.store.ListWorkers(ctx, tenantID, status, skill)
}

// WorkerStats returns the tenant's aggregate worker-pool statistics.
func (s *Service) WorkerStats(ctx context.Context, tenantID string) (*domain.WorkerStats, error) {
	return s.store.WorkerStats(ctx, tenantID)
}
