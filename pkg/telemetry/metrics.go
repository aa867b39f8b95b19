package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Intake ──────────────────────────────────────────────────────────────────

	IntakeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "intake",
		Name:      "requests_total",
		Help:      "Inbound call/SMS/WhatsApp requests, labelled by channel and outcome.",
	}, []string{"channel", "outcome"})

	TasksCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "intake",
		Name:      "tasks_created_total",
		Help:      "Tasks created from classified requests, labelled by urgency.",
	}, []string{"urgency"})

	EscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "intake",
		Name:      "escalations_total",
		Help:      "Tasks flagged for human escalation.",
	})

	ClassifierFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "intake",
		Name:      "classifier_failures_total",
		Help:      "Classification calls that failed and fell back to the catch-all intent.",
	})

	IntakeRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "intake",
		Name:      "rate_limited_total",
		Help:      "Inbound requests rejected by the per-caller rate limiter.",
	})

	// ─── Assignment ──────────────────────────────────────────────────────────────

	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "assign",
		Name:      "assignments_total",
		Help:      "Successful task assignments, labelled by mode (manual or auto).",
	}, []string{"mode"})

	AssignmentNoCandidateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "assign",
		Name:      "no_candidate_total",
		Help:      "Auto-assignment attempts that found no qualified worker.",
	})

	CompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "assign",
		Name:      "completions_total",
		Help:      "Completed tasks with worker capacity released.",
	})

	// ─── Notifier ────────────────────────────────────────────────────────────────

	NotifyIntentsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "notify",
		Name:      "intents_queued_total",
		Help:      "Notification intents queued by the core, labelled by kind.",
	}, []string{"kind"})

	NotifyDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Notification delivery attempts, labelled by channel and status.",
	}, []string{"channel", "status"})

	// ─── Sweeper ─────────────────────────────────────────────────────────────────

	SweeperAssignedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicetask",
		Subsystem: "sweeper",
		Name:      "assigned_total",
		Help:      "Unassigned tasks picked up by the periodic auto-assignment sweep.",
	})
)
