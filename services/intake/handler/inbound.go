package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hameedsk381/voice-task-ai/internal/classifier"
	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/internal/orchestrator"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
)

// InboundRequest is the webhook body posted by the voice/messaging provider
// after a call or message has been transcribed.
type InboundRequest struct {
	Channel      string `json:"channel"` // voice | sms | whatsapp
	PhoneNumber  string `json:"phone_number"`
	CustomerName string `json:"customer_name,omitempty"`
	Transcript   string `json:"transcript"`
}

// InboundResponse is the 201 response body for a processed request.
type InboundResponse struct {
	Task      *domain.Task `json:"task"`
	Escalated bool         `json:"escalated"`
	Reason    string       `json:"escalation_reason,omitempty"`
}

// replyChannel maps the inbound channel to the outbound confirmation channel.
// Voice callers get their confirmation by SMS.
func replyChannel(inbound string) notify.Channel {
	if inbound == string(notify.ChannelWhatsApp) {
		return notify.ChannelWhatsApp
	}
	return notify.ChannelSMS
}

// Inbound handles POST /api/v1/inbound: classify the transcript, evaluate the
// escalation policy, and create the task. A classifier outage degrades to the
// catch-all result instead of dropping the request.
func (h *Handler) Inbound(w http.ResponseWriter, r *http.Request) {
	h.inbound(w, r, "")
}

// inboundFor serves the per-channel webhook paths, which carry the channel in
// the URL instead of the body.
func (h *Handler) inboundFor(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.inbound(w, r, channel)
	}
}

func (h *Handler) inbound(w http.ResponseWriter, r *http.Request, channel string) {
	ctx, span := otel.Tracer("intake").Start(r.Context(), "intake.inbound")
	defer span.End()
	r = r.WithContext(ctx)

	tenant := tenantID(r)
	if tenant == "" {
		writeError(w, http.StatusBadRequest, "X-Tenant-ID header is required")
		return
	}

	var req InboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if channel != "" {
		req.Channel = channel
	}
	if req.Channel == "" {
		req.Channel = "voice"
	}
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "field 'phone_number' is required")
		return
	}
	if req.Transcript == "" {
		writeError(w, http.StatusBadRequest, "field 'transcript' is required")
		return
	}

	span.SetAttributes(
		attribute.String("intake.channel", req.Channel),
		attribute.String("intake.tenant", tenant),
	)

	allowed, err := h.limiter.Allow(ctx, req.PhoneNumber)
	if err != nil {
		h.logger.Warn("rate limiter unavailable, allowing request",
			slog.String("error", err.Error()))
	} else if !allowed {
		telemetry.IntakeRateLimitedTotal.Inc()
		telemetry.IntakeRequestsTotal.WithLabelValues(req.Channel, "rate_limited").Inc()
		writeError(w, http.StatusTooManyRequests, "too many requests from this number")
		return
	}

	result, err := h.classifier.Classify(ctx, req.Transcript)
	if err != nil {
		span.RecordError(err)
		telemetry.ClassifierFailuresTotal.Inc()
		h.logger.Error("classification failed, using fallback",
			slog.String("phone", req.PhoneNumber),
			slog.String("error", err.Error()),
		)
		h.core.RecordFailure(ctx, tenant, req.PhoneNumber, "classification failed: "+err.Error())
		result = classifier.Fallback(req.Transcript)
	}

	task, err := h.core.CreateTask(ctx, orchestrator.CreateTaskInput{
		TenantID:      tenant,
		Intent:        result.Intent,
		Issue:         result.Issue,
		Urgency:       result.Urgency,
		Location:      result.Location,
		PreferredTime: result.PreferredTime,
		Confidence:    result.Confidence,
		CustomerPhone: req.PhoneNumber,
		CustomerName:  req.CustomerName,
		Transcript:    req.Transcript,
		ReplyChannel:  replyChannel(req.Channel),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "task creation failed")
		telemetry.IntakeRequestsTotal.WithLabelValues(req.Channel, "error").Inc()
		h.writeDomainError(w, r, err)
		return
	}

	resp := InboundResponse{Task: task}
	if escalate, reason := h.policy.Decide(result); escalate {
		escalated, err := h.core.Escalate(ctx, task.ID, reason)
		if err != nil {
			// The task exists; report it without the escalation flag.
			h.logger.Error("escalation failed",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
		} else {
			resp.Task = escalated
			resp.Escalated = true
			resp.Reason = reason
		}
	}

	telemetry.IntakeRequestsTotal.WithLabelValues(req.Channel, "created").Inc()
	span.SetAttributes(attribute.String("task.id", task.ID))
	writeJSON(w, http.StatusCreated, resp)
}
