package notify

import (
	"fmt"
	"strings"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

// shortID truncates a task ID for human-facing messages.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// WorkerAssignmentMessage is the SMS body sent to a worker on assignment.
func WorkerAssignmentMessage(task *domain.Task) string {
	return fmt.Sprintf(`NEW TASK ASSIGNED

Issue: %s
Location: %s
Urgency: %s
Customer: %s

Please confirm or call customer ASAP.

Task ID: %s`,
		task.Issue,
		orNA(task.Location),
		strings.ToUpper(string(task.Urgency)),
		task.CustomerPhone,
		shortID(task.ID),
	)
}

// TaskAlertMessage notifies the operations team about a newly created task.
func TaskAlertMessage(task *domain.Task) string {
	return fmt.Sprintf(`New %s task created
Intent: %s
Issue: %s
Customer: %s
Task ID: %s`,
		task.Urgency, task.Intent, task.Issue, task.CustomerPhone, shortID(task.ID))
}

// EscalationAlertMessage notifies staff that a task needs human attention.
func EscalationAlertMessage(task *domain.Task, reason string) string {
	return fmt.Sprintf(`ESCALATION ALERT
Reason: %s
Intent: %s
Issue: %s
Customer: %s
Task ID: %s`,
		reason, task.Intent, task.Issue, task.CustomerPhone, shortID(task.ID))
}

// CustomerConfirmationMessage acknowledges the customer's request.
func CustomerConfirmationMessage(task *domain.Task) string {
	return fmt.Sprintf(
		"Thank you, your %s request has been received and will be handled shortly. Reference: %s",
		task.Intent, shortID(task.ID))
}
