package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

func (e *testEnv) seedAssignedTask(t *testing.T, workerID string) *domain.Task {
	t.Helper()
	ctx := context.Background()
	task, err := e.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	assigned, err := e.svc.AssignManual(ctx, task.ID, workerID)
	require.NoError(t, err)
	return assigned
}

// closeTask mirrors the HTTP completion flow: release the worker, then move
// the task to closed.
func (e *testEnv) closeTask(t *testing.T, taskID string, rating *float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.svc.Complete(ctx, taskID, rating))
	_, err := e.svc.SetStatus(ctx, taskID, domain.StatusClosed)
	require.NoError(t, err)
}

func TestComplete_ReleasesWorker(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 3, nil)
	task := env.seedAssignedTask(t, worker.ID)

	require.NoError(t, env.svc.Complete(ctx, task.ID, ptr(5.0)))

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentTasks)
	assert.Equal(t, 1, stored.TotalJobs)
	assert.Equal(t, domain.WorkerAvailable, stored.Status)
	require.NotNil(t, stored.Rating)
	assert.InDelta(t, 5.0, *stored.Rating, 1e-9)

	// The task itself is untouched; closing it is a separate lifecycle call.
	got, err := env.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
	assert.Equal(t, worker.ID, got.AssignedTo, "assignment is retained for audit")
}

func TestComplete_RatingFold(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 5, nil)

	// Three rated jobs: 4, 5, 3 → running average ends at 4.0.
	for _, rating := range []float64{4, 5, 3} {
		task := env.seedAssignedTask(t, worker.ID)
		env.closeTask(t, task.ID, ptr(rating))
	}

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalJobs)
	require.NotNil(t, stored.Rating)
	assert.InDelta(t, 4.0, *stored.Rating, 1e-9)
}

func TestComplete_WithoutRatingKeepsAverage(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 5, ptr(4.2))
	task := env.seedAssignedTask(t, worker.ID)

	require.NoError(t, env.svc.Complete(ctx, task.ID, nil))

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalJobs, "unrated completions still count as jobs")
	require.NotNil(t, stored.Rating)
	assert.InDelta(t, 4.2, *stored.Rating, 1e-9)
}

func TestComplete_InvalidRating(t *testing.T) {
	env := newTestEnv(Config{})

	for _, rating := range []float64{0, 0.9, 5.1, -1} {
		err := env.svc.Complete(context.Background(), "any", ptr(rating))

		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "rating", vErr.Field)
	}
}

func TestComplete_FreesBusyWorker(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 2, 3, nil)
	task := env.seedAssignedTask(t, worker.ID) // now 3/3, busy

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	require.Equal(t, domain.WorkerBusy, stored.Status)

	require.NoError(t, env.svc.Complete(ctx, task.ID, nil))

	stored, err = env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentTasks)
	assert.Equal(t, domain.WorkerAvailable, stored.Status)
}

func TestComplete_UnassignedTaskIgnored(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)

	// Both calls are no-ops: nothing to release, nothing to count.
	require.NoError(t, env.svc.Complete(ctx, task.ID, nil))
	require.NoError(t, env.svc.Complete(ctx, task.ID, nil))
}

func TestComplete_VanishedWorkerTolerated(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 3, nil)
	task := env.seedAssignedTask(t, worker.ID)
	delete(env.store.workers, worker.ID)

	require.NoError(t, env.svc.Complete(ctx, task.ID, ptr(5.0)))
}

func TestComplete_ClosedTaskIsNoOp(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 3, nil)
	task := env.seedAssignedTask(t, worker.ID)

	env.closeTask(t, task.ID, ptr(4.0))
	require.NoError(t, env.svc.Complete(ctx, task.ID, ptr(4.0)))

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalJobs, "repeat completion must not double-count")
	assert.Equal(t, 0, stored.CurrentTasks)
}

func TestComplete_UnknownTask(t *testing.T) {
	env := newTestEnv(Config{})

	assert.NoError(t, env.svc.Complete(context.Background(), "ghost", nil))
}
