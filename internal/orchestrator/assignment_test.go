package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
)

func TestAssignManual(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 3, nil)

	assigned, err := env.svc.AssignManual(ctx, task.ID, worker.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, assigned.Status)
	assert.Equal(t, worker.ID, assigned.AssignedTo)
	assert.Equal(t, "Ahmed", assigned.AssignedWorkerName)

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentTasks)
	assert.Equal(t, domain.WorkerAvailable, stored.Status, "below capacity stays available")

	sms := env.sink.byKind(notify.KindWorkerAssignment)
	require.Len(t, sms, 1)
	assert.Equal(t, worker.Phone, sms[0].Recipient)
	assert.Contains(t, sms[0].Message, "NEW TASK ASSIGNED")

	assert.Equal(t, 1, env.locks.acquired[workerLockKey(worker.ID)], "assignment serializes on the worker")
}

func TestAssignManual_LastSlotFlipsWorkerBusy(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 2, 3, nil)

	_, err = env.svc.AssignManual(ctx, task.ID, worker.ID)
	require.NoError(t, err)

	stored, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentTasks)
	assert.Equal(t, domain.WorkerBusy, stored.Status)
}

func TestAssignManual_AtCapacity(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	worker := env.seedWorker("Full", "+971501111111", []string{"Plumbing"}, 3, 3, nil)

	_, err = env.svc.AssignManual(ctx, task.ID, worker.ID)

	var capErr *domain.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, worker.ID, capErr.WorkerID)

	// Neither record changed.
	stored, err := env.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, stored.Status)
	assert.False(t, stored.Assigned())

	storedWorker, err := env.store.GetWorker(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, storedWorker.CurrentTasks)

	assert.Empty(t, env.sink.byKind(notify.KindWorkerAssignment), "no SMS on failed assignment")
}

func TestAssignManual_AlreadyAssigned(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	first := env.seedWorker("First", "+971501111111", []string{"Plumbing"}, 0, 3, nil)
	second := env.seedWorker("Second", "+971502222222", []string{"Plumbing"}, 0, 3, nil)

	_, err = env.svc.AssignManual(ctx, task.ID, first.ID)
	require.NoError(t, err)

	_, err = env.svc.AssignManual(ctx, task.ID, second.ID)

	var cErr *domain.ConflictError
	assert.ErrorAs(t, err, &cErr)
}

func TestAssignManual_ClosedTask(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	_, err = env.svc.SetStatus(ctx, task.ID, domain.StatusClosed)
	require.NoError(t, err)
	worker := env.seedWorker("Ahmed", "+971501111111", []string{"Plumbing"}, 0, 3, nil)

	_, err = env.svc.AssignManual(ctx, task.ID, worker.ID)

	var tErr *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &tErr)
}

func TestAssignManual_UnknownWorker(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = env.svc.AssignManual(ctx, task.ID, "ghost")

	var nfErr *domain.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "worker", nfErr.Kind)
}

func TestAssignAuto_PicksLeastLoadedThenBestRated(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)

	// A carries more load than B; B must win despite the lower rating.
	env.seedWorker("A", "+971501111111", []string{"Plumbing"}, 2, 5, ptr(4.5))
	b := env.seedWorker("B", "+971502222222", []string{"Plumbing"}, 1, 5, ptr(3.0))

	assigned, worker, err := env.svc.AssignAuto(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned)
	assert.Equal(t, b.ID, worker.ID)
	assert.Equal(t, b.ID, assigned.AssignedTo)
}

func TestAssignAuto_RatingBreaksLoadTie(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)

	env.seedWorker("Unrated", "+971501111111", []string{"Plumbing"}, 1, 5, nil)
	rated := env.seedWorker("Rated", "+971502222222", []string{"Plumbing"}, 1, 5, ptr(4.0))

	_, worker, err := env.svc.AssignAuto(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, worker)
	assert.Equal(t, rated.ID, worker.ID, "rated workers beat unrated at equal load")
}

func TestAssignAuto_SkipsWrongSkillAndFullWorkers(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)

	env.seedWorker("Electrician", "+971501111111", []string{"Electrical"}, 0, 5, ptr(5.0))
	env.seedWorker("Full Plumber", "+971502222222", []string{"Plumbing"}, 3, 3, ptr(5.0))
	match := env.seedWorker("Free Plumber", "+971503333333", []string{"Plumbing"}, 2, 5, nil)

	_, worker, err := env.svc.AssignAuto(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, worker)
	assert.Equal(t, match.ID, worker.ID)
}

func TestAssignAuto_NoCandidate(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	env.seedWorker("Electrician", "+971501111111", []string{"Electrical"}, 0, 5, nil)

	assigned, worker, err := env.svc.AssignAuto(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, assigned)
	assert.Nil(t, worker)

	// Task is untouched and waits for the next sweep.
	stored, err := env.store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNew, stored.Status)
}

func TestAssignAuto_IgnoresOfflineWorkers(t *testing.T) {
	env := newTestEnv(Config{})
	ctx := context.Background()

	task, err := env.svc.CreateTask(ctx, validCreateInput())
	require.NoError(t, err)
	w := env.seedWorker("Offline Plumber", "+971501111111", []string{"Plumbing"}, 0, 5, ptr(5.0))
	w.Status = domain.WorkerOffline

	assigned, _, err := env.svc.AssignAuto(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, assigned)
}

func TestAssignAuto_UnknownTaskIsNoCandidate(t *testing.T) {
	env := newTestEnv(Config{})
	env.seedWorker("Idle", "+971501111111", []string{"Plumbing"}, 0, 5, nil)

	assigned, worker, err := env.svc.AssignAuto(context.Background(), "ghost")

	require.NoError(t, err, "a vanished task is not a failure")
	assert.Nil(t, assigned)
	assert.Nil(t, worker)
}
