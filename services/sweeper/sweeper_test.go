package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

type fakeCore struct {
	waiting  []*domain.Task
	listErr  error
	assigned []string
	// per-task behaviour: "ok", "skip" (no candidate) or "err"
	outcomes map[string]string
}

func (f *fakeCore) ListUnassigned(context.Context, int) ([]*domain.Task, error) {
	return f.waiting, f.listErr
}

func (f *fakeCore) AssignAuto(_ context.Context, taskID string) (*domain.Task, *domain.Worker, error) {
	switch f.outcomes[taskID] {
	case "skip":
		return nil, nil, nil
	case "err":
		return nil, nil, errors.New("boom")
	default:
		f.assigned = append(f.assigned, taskID)
		return &domain.Task{ID: taskID, Status: domain.StatusInProgress, AssignedTo: "w1"},
			&domain.Worker{ID: "w1"}, nil
	}
}

func newTestSweeper(t *testing.T, core Core) *Sweeper {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(core, nil, "*/5 * * * *", 100, "sweeper-test", logger)
	require.NoError(t, err)
	return s
}

func waitingTasks(ids ...string) []*domain.Task {
	tasks := make([]*domain.Task, len(ids))
	for i, id := range ids {
		tasks[i] = &domain.Task{ID: id, Status: domain.StatusNew}
	}
	return tasks
}

func TestSweep_AssignsWaitingTasks(t *testing.T) {
	core := &fakeCore{waiting: waitingTasks("t1", "t2"), outcomes: map[string]string{}}
	s := newTestSweeper(t, core)

	require.NoError(t, s.sweep(context.Background()))

	assert.Equal(t, []string{"t1", "t2"}, core.assigned)
}

func TestSweep_LeavesTasksWithNoCandidate(t *testing.T) {
	core := &fakeCore{
		waiting:  waitingTasks("t1", "t2", "t3"),
		outcomes: map[string]string{"t2": "skip"},
	}
	s := newTestSweeper(t, core)

	require.NoError(t, s.sweep(context.Background()))

	assert.Equal(t, []string{"t1", "t3"}, core.assigned)
}

func TestSweep_ContinuesPastFailures(t *testing.T) {
	core := &fakeCore{
		waiting:  waitingTasks("t1", "t2", "t3"),
		outcomes: map[string]string{"t1": "err"},
	}
	s := newTestSweeper(t, core)

	require.NoError(t, s.sweep(context.Background()), "per-task errors are logged, not returned")

	assert.Equal(t, []string{"t2", "t3"}, core.assigned)
}

func TestSweep_EmptyBatch(t *testing.T) {
	core := &fakeCore{outcomes: map[string]string{}}
	s := newTestSweeper(t, core)

	require.NoError(t, s.sweep(context.Background()))
	assert.Empty(t, core.assigned)
}

func TestSweep_ListErrorPropagates(t *testing.T) {
	core := &fakeCore{listErr: errors.New("postgres down"), outcomes: map[string]string{}}
	s := newTestSweeper(t, core)

	assert.Error(t, s.sweep(context.Background()))
}

func TestNew_RejectsBadCron(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := New(&fakeCore{}, nil, "not a cron expr", 10, "x", logger)
	assert.Error(t, err)
}
