package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryPipeline covers verification lifecycle events: stage
	// transitions, terminal decisions, failures.
	CategoryPipeline EventCategory = "pipeline"

	// CategoryRegistry covers events with downstream legal significance:
	// asset registration and legal workflow hand-offs.
	CategoryRegistry EventCategory = "registry"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key pipeline actions. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory `json:"category"`
	Timestamp    time.Time     `json:"timestamp"`
	SubmissionID string        `json:"submissionId"`
	Stage        string        `json:"stage,omitempty"`
	Action       string        `json:"action"`
	Status       string        `json:"status,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	// RequestID is the correlation id from the HTTP request that created the
	// submission, carried through the asynchronous pipeline.
	RequestID string `json:"requestId,omitempty"`
}

type AuditEvent string

const (
	EventSubmissionReceived AuditEvent = "submission_received"
	EventStageStarted       AuditEvent = "stage_started"
	EventStageCompleted     AuditEvent = "stage_completed"
	EventStageFailed        AuditEvent = "stage_failed"
	EventSubmissionEligible AuditEvent = "submission_eligible"
	EventSubmissionRejected AuditEvent = "submission_rejected"
	EventSubmissionFailed   AuditEvent = "submission_failed"
	EventAssetRegistered    AuditEvent = "asset_registered"
	EventLegalWorkflowOpen  AuditEvent = "legal_workflow_started"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubmission(ctx context.Context, submissionID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink forwards events to an external system, such as a message broker.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
