package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
)

// Complete releases the assigned worker's capacity and folds the rating into
// the worker's running average. It does not close the task; callers move the
// task to closed through SetStatus so worker-state and task-state mutations
// stay separate.
//
// Completion of a missing, unassigned or already-closed task is silently
// ignored, as is a worker that has since been removed. rating, when provided,
// must be between 1 and 5.
func (s *Service) Complete(ctx context.Context, taskID string, rating *float64) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return &domain.ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	if task.Status == domain.StatusClosed || !task.Assigned() {
		return nil
	}

	if err := s.releaseWorker(ctx, task.AssignedTo, rating); err != nil {
		return err
	}
	telemetry.CompletionsTotal.Inc()

	s.logger.Info("task completed",
		slog.String("task_id", task.ID),
		slog.String("worker_id", task.AssignedTo),
		slog.Bool("rated", rating != nil),
	)
	return nil
}

// releaseWorker decrements the worker's load, records the finished job and
// folds in the rating. A vanished worker is tolerated silently.
func (s *Service) releaseWorker(ctx context.Context, workerID string, rating *float64) error {
	release, err := s.locks.Acquire(ctx, workerLockKey(workerID))
	if err != nil {
		return err
	}
	defer release()

	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	if worker.CurrentTasks > 0 {
		worker.CurrentTasks--
	}
	worker.TotalJobs++
	if rating != nil {
		worker.Rating = foldRating(worker.Rating, worker.TotalJobs, *rating)
	}
	if worker.CurrentTasks < worker.MaxTasks {
		worker.Status = domain.WorkerAvailable
	}
	worker.UpdatedAt = s.now()

	return s.store.UpdateWorker(ctx, worker)
}

// foldRating merges one new rating into the running average over totalJobs
// completed jobs, the new one included.
func foldRating(current *float64, totalJobs int, rating float64) *float64 {
	if current == nil || totalJobs <= 1 {
		return &rating
	}
	avg := (*current*float64(totalJobs-1) + rating) / float64(totalJobs)
	return &avg
}
