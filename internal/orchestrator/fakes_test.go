package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/escalation"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
)

// fakeStore is an in-memory Store with the same semantics as the Postgres
// implementation, including the conditional capacity check in Assign.
type fakeStore struct {
	mu       sync.Mutex
	tasks    map[string]*domain.Task
	workers  map[string]*domain.Worker
	calls    []*domain.CallLogEntry
	failures []*domain.FailureLogEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:   make(map[string]*domain.Task),
		workers: make(map[string]*domain.Worker),
	}
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	return &c
}

func copyWorker(w *domain.Worker) *domain.Worker {
	c := *w
	c.Skills = append([]string(nil), w.Skills...)
	if w.Rating != nil {
		r := *w.Rating
		c.Rating = &r
	}
	return &c
}

func (f *fakeStore) CreateTask(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}
	return copyTask(task), nil
}

func (f *fakeStore) ListTasks(_ context.Context, tenantID string, status *domain.Status, limit int) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.TenantID != tenantID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListUnassigned(_ context.Context, limit int) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.Status == domain.StatusNew && !t.Assigned() {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return &domain.NotFoundError{Kind: "task", ID: task.ID}
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeStore) CountTasks(_ context.Context, tenantID string, status *domain.Status) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tasks {
		if t.TenantID == tenantID && (status == nil || t.Status == *status) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateWorker(_ context.Context, worker *domain.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.workers {
		if w.TenantID == worker.TenantID && w.Phone == worker.Phone {
			return &domain.ConflictError{
				Reason: fmt.Sprintf("worker with phone %s already exists", worker.Phone),
			}
		}
	}
	f.workers[worker.ID] = copyWorker(worker)
	return nil
}

func (f *fakeStore) GetWorker(_ context.Context, id string) (*domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	worker, ok := f.workers[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "worker", ID: id}
	}
	return copyWorker(worker), nil
}

func (f *fakeStore) ListWorkers(_ context.Context, tenantID string, status *domain.WorkerStatus, skill string) ([]*domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Worker
	for _, w := range f.workers {
		if w.TenantID != tenantID {
			continue
		}
		if status != nil && w.Status != *status {
			continue
		}
		if skill != "" && !w.HasSkill(skill) {
			continue
		}
		out = append(out, copyWorker(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) ListAssignable(_ context.Context, tenantID string) ([]*domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Worker
	for _, w := range f.workers {
		if w.TenantID != tenantID || w.Status == domain.WorkerOffline {
			continue
		}
		out = append(out, copyWorker(w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentTasks != out[j].CurrentTasks {
			return out[i].CurrentTasks < out[j].CurrentTasks
		}
		ri, rj := out[i].Rating, out[j].Rating
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
	return out, nil
}

func (f *fakeStore) UpdateWorker(_ context.Context, worker *domain.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workers[worker.ID]; !ok {
		return &domain.NotFoundError{Kind: "worker", ID: worker.ID}
	}
	f.workers[worker.ID] = copyWorker(worker)
	return nil
}

func (f *fakeStore) DeleteWorker(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.workers[id]; !ok {
		return &domain.NotFoundError{Kind: "worker", ID: id}
	}
	delete(f.workers, id)
	return nil
}

func (f *fakeStore) WorkerStats(_ context.Context, tenantID string) (*domain.WorkerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats domain.WorkerStats
	var ratingSum float64
	var rated int
	for _, w := range f.workers {
		if w.TenantID != tenantID {
			continue
		}
		stats.Total++
		stats.TotalJobsDone += w.TotalJobs
		switch w.Status {
		case domain.WorkerAvailable:
			stats.Available++
		case domain.WorkerBusy:
			stats.Busy++
		case domain.WorkerOffline:
			stats.Offline++
		}
		if w.Rating != nil {
			ratingSum += *w.Rating
			rated++
		}
	}
	if rated > 0 {
		avg := ratingSum / float64(rated)
		stats.AverageRating = &avg
	}
	return &stats, nil
}

// Assign mirrors the transactional semantics: the worker increment is
// conditional on free capacity and a capacity failure mutates nothing.
func (f *fakeStore) Assign(_ context.Context, taskID, workerID string) (*domain.Task, *domain.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	worker, ok := f.workers[workerID]
	if !ok {
		return nil, nil, &domain.NotFoundError{Kind: "worker", ID: workerID}
	}
	if worker.AtCapacity() {
		return nil, nil, &domain.CapacityError{WorkerID: worker.ID, WorkerName: worker.Name}
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, nil, &domain.NotFoundError{Kind: "task", ID: taskID}
	}

	now := time.Now().UTC()
	worker.CurrentTasks++
	if worker.CurrentTasks >= worker.MaxTasks {
		worker.Status = domain.WorkerBusy
	}
	worker.UpdatedAt = now

	task.AssignedTo = worker.ID
	task.AssignedWorkerName = worker.Name
	task.Status = domain.StatusInProgress
	task.UpdatedAt = now

	return copyTask(task), copyWorker(worker), nil
}

func (f *fakeStore) AppendCall(_ context.Context, entry *domain.CallLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, entry)
	return nil
}

func (f *fakeStore) AppendFailure(_ context.Context, entry *domain.FailureLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, entry)
	return nil
}

func (f *fakeStore) ListFailures(_ context.Context, limit int) ([]*domain.FailureLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]*domain.FailureLogEntry(nil), f.failures...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountCalls(_ context.Context, tenantID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountFailures(_ context.Context, tenantID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.failures {
		if e.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

// fakeStates records status writes in memory.
type fakeStates struct {
	mu     sync.Mutex
	status map[string]domain.Status
}

func newFakeStates() *fakeStates {
	return &fakeStates{status: make(map[string]domain.Status)}
}

func (f *fakeStates) SetStatus(_ context.Context, taskID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[taskID] = status
	return nil
}

func (f *fakeStates) GetStatus(_ context.Context, taskID string) (domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.status[taskID]
	if !ok {
		return "", &domain.NotFoundError{Kind: "task", ID: taskID}
	}
	return status, nil
}

// fakeLocker counts acquisitions per key.
type fakeLocker struct {
	mu       sync.Mutex
	acquired map[string]int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{acquired: make(map[string]int)}
}

func (f *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired[key]++
	return func() {}, nil
}

// fakeSink records flushed intents.
type fakeSink struct {
	mu      sync.Mutex
	intents []notify.Intent
	err     error
}

func (f *fakeSink) Send(_ context.Context, intent notify.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakeSink) byKind(kind notify.Kind) []notify.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notify.Intent
	for _, intent := range f.intents {
		if intent.Kind == kind {
			out = append(out, intent)
		}
	}
	return out
}

type testEnv struct {
	svc    *Service
	store  *fakeStore
	states *fakeStates
	locks  *fakeLocker
	sink   *fakeSink
}

func newTestEnv(cfg Config) *testEnv {
	store := newFakeStore()
	states := newFakeStates()
	locks := newFakeLocker()
	sink := &fakeSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(store, states, locks, sink, escalation.NewPolicy(0), cfg, logger)
	return &testEnv{svc: svc, store: store, states: states, locks: locks, sink: sink}
}

func validCreateInput() CreateTaskInput {
	return CreateTaskInput{
		TenantID:      "tenant-1",
		Intent:        "Plumbing",
		Issue:         "kitchen sink leaking",
		Urgency:       domain.UrgencyHigh,
		Location:      "Dubai Marina",
		Confidence:    0.92,
		CustomerPhone: "+971501234567",
		Transcript:    "my kitchen sink is leaking everywhere",
	}
}

func (e *testEnv) seedWorker(name, phone string, skills []string, current, max int, rating *float64) *domain.Worker {
	w := &domain.Worker{
		ID:           uuid.New().String(),
		TenantID:     "tenant-1",
		Name:         name,
		Phone:        phone,
		Skills:       skills,
		Status:       domain.WorkerAvailable,
		CurrentTasks: current,
		MaxTasks:     max,
		Rating:       rating,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if w.AtCapacity() {
		w.Status = domain.WorkerBusy
	}
	e.store.workers[w.ID] = w
	return w
}

func ptr[T any](v T) *T { return &v }
