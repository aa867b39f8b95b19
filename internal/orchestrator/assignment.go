package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
)

func workerLockKey(workerID string) string { return "assign:worker:" + workerID }

// ListUnassigned returns up to limit tasks still waiting for a worker,
// oldest first. The sweeper feeds these back through AssignAuto.
func (s *Service) ListUnassigned(ctx context.Context, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.ListUnassigned(ctx, limit)
}

// AssignManual binds a task to an explicitly chosen worker. The worker's
// capacity is checked inside the assignment transaction; a full worker
// returns a CapacityError and neither record changes.
func (s *Service) AssignManual(ctx context.Context, taskID, workerID string) (*domain.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{TaskID: task.ID, From: task.Status, To: domain.StatusInProgress}
	}
	if task.Assigned() {
		return nil, &domain.ConflictError{Reason: "task is already assigned to " + task.AssignedWorkerName}
	}

	task, worker, err := s.assign(ctx, taskID, workerID)
	if err != nil {
		return nil, err
	}
	telemetry.AssignmentsTotal.WithLabelValues("manual").Inc()

	s.logger.Info("task assigned",
		slog.String("task_id", task.ID),
		slog.String("worker_id", worker.ID),
		slog.String("mode", "manual"),
	)
	return task, nil
}

// AssignAuto picks the best available worker for the task: candidates are
// ordered least-loaded first, then highest-rated, and the first one with the
// matching skill and free capacity wins. A (nil, nil) return means no
// qualified worker exists right now; the task stays unassigned.
func (s *Service) AssignAuto(ctx context.Context, taskID string) (*domain.Task, *domain.Worker, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		// A task deleted between enqueue and sweep leaves nothing to
		// assign; that is the no-candidate outcome, not a failure.
		var nfErr *domain.NotFoundError
		if errors.As(err, &nfErr) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if task.Status.IsTerminal() {
		return nil, nil, &domain.InvalidTransitionError{TaskID: task.ID, From: task.Status, To: domain.StatusInProgress}
	}
	if task.Assigned() {
		return nil, nil, &domain.ConflictError{Reason: "task is already assigned to " + task.AssignedWorkerName}
	}

	candidates, err := s.store.ListAssignable(ctx, task.TenantID)
	if err != nil {
		return nil, nil, err
	}

	for _, candidate := range candidates {
		if !candidate.HasSkill(task.Intent) || candidate.AtCapacity() {
			continue
		}

		assigned, worker, err := s.assign(ctx, taskID, candidate.ID)
		if err != nil {
			// Lost a race for this worker's last slot; try the next one.
			var capErr *domain.CapacityError
			if errors.As(err, &capErr) {
				continue
			}
			return nil, nil, err
		}
		telemetry.AssignmentsTotal.WithLabelValues("auto").Inc()

		s.logger.Info("task assigned",
			slog.String("task_id", assigned.ID),
			slog.String("worker_id", worker.ID),
			slog.String("mode", "auto"),
		)
		return assigned, worker, nil
	}

	telemetry.AssignmentNoCandidateTotal.Inc()
	s.logger.Info("no assignable worker",
		slog.String("task_id", task.ID),
		slog.String("intent", task.Intent),
	)
	return nil, nil, nil
}

// assign serializes on the worker, applies the transactional mutation, then
// mirrors the status and queues the worker's SMS.
func (s *Service) assign(ctx context.Context, taskID, workerID string) (*domain.Task, *domain.Worker, error) {
	release, err := s.locks.Acquire(ctx, workerLockKey(workerID))
	if err != nil {
		return nil, nil, err
	}
	defer release()

	task, worker, err := s.store.Assign(ctx, taskID, workerID)
	if err != nil {
		return nil, nil, err
	}
	s.cacheStatus(ctx, task.ID, task.Status)

	queue := s.newQueue()
	queue.Defer(notify.Intent{
		TenantID:  task.TenantID,
		Kind:      notify.KindWorkerAssignment,
		Channel:   notify.ChannelSMS,
		Recipient: worker.Phone,
		Message:   notify.WorkerAssignmentMessage(task),
	})
	queue.Flush(ctx)

	return task, worker, nil
}
