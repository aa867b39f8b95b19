package domain

import "time"

// Status represents the states a service task can be in.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusEscalated  Status = "escalated"
	StatusClosed     Status = "closed"
)

// IsTerminal returns true if no further state transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

// Valid reports whether s is one of the known task states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusEscalated, StatusClosed:
		return true
	}
	return false
}

// Urgency is the caller-reported severity of a service request.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is one of the known urgency levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// NormalizeUrgency maps free-text urgency to a known level, defaulting to medium.
func NormalizeUrgency(raw string) Urgency {
	u := Urgency(raw)
	if u.Valid() {
		return u
	}
	return UrgencyMedium
}

// Task is the core domain entity: one tracked service request from intake
// through assignment to closure.
type Task struct {
	ID                 string    `json:"id"`
	TenantID           string    `json:"tenant_id"`
	Intent             string    `json:"intent"`
	Issue              string    `json:"issue"`
	Urgency            Urgency   `json:"urgency"`
	Location           string    `json:"location,omitempty"`
	PreferredTime      string    `json:"preferred_time,omitempty"`
	Confidence         float64   `json:"confidence"`
	Status             Status    `json:"status"`
	CustomerPhone      string    `json:"customer_phone"`
	CustomerName       string    `json:"customer_name,omitempty"`
	Transcript         string    `json:"transcript"`
	EscalationReason   string    `json:"escalation_reason,omitempty"`
	AssignedTo         string    `json:"assigned_to,omitempty"`
	AssignedWorkerName string    `json:"assigned_worker_name,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Assigned reports whether the task currently references a worker.
func (t *Task) Assigned() bool { return t.AssignedTo != "" }

// CallLogEntry is one audit record appended when an inbound call/message
// produced (or failed to produce) a task.
type CallLogEntry struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PhoneNumber string    `json:"phone_number"`
	Transcript  string    `json:"transcript"`
	Confidence  float64   `json:"confidence"`
	TaskID      string    `json:"task_id,omitempty"`
	Success     bool      `json:"success"`
	CreatedAt   time.Time `json:"created_at"`
}

// FailureLogEntry records an unhandled error during end-to-end intake.
type FailureLogEntry struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Error       string    `json:"error_message"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
