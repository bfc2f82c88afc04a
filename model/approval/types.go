package approval

import (
	"encoding/json"
	"time"
)

// Status represents the position of an approval request in its lifecycle.
type Status string

const (
	// Terminal decision statuses.
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusTimeout  Status = "Timeout"

	// Extended lifecycle statuses – reported on lifecycle events and logs
	// only, never recorded as a terminal decision.
	StatusInitiated       Status = "Initiated"
	StatusError           Status = "Error"
	StatusExecuted        Status = "Executed"
	StatusExecutionFailed Status = "ExecutionFailed"
)

// Terminal reports whether the status ends the decision lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusTimeout:
		return true
	}
	return false
}

// Request represents a request for human approval of a single gated
// operation. It is immutable once submitted.
type Request struct {
	CorrelationID     string          `json:"correlationId"`        // globally unique, primary key
	AgentName         string          `json:"agentName"`            // requesting agent
	ActionDescription string          `json:"actionDescription"`    // human-readable action summary
	Parameters        json.RawMessage `json:"parameters,omitempty"` // JSON-encoded call arguments, may be null
	ApproverEmails    []string        `json:"approverEmails"`       // ordered, non-empty
	CreatedAt         time.Time       `json:"timestamp"`            // RFC-3339 submission time
	ExpiresAt         *time.Time      `json:"expiresAt,omitempty"`  // optional deadline; engine default applies when nil
}

// Decision represents the terminal outcome of one request. Status is
// monotonic: once it leaves Pending it never changes.
type Decision struct {
	CorrelationID string    `json:"correlationId"`
	Status        Status    `json:"status"`
	Approver      string    `json:"approver,omitempty"` // responder identity when a callback supplied one
	DecidedAt     time.Time `json:"decidedAt"`
}

// Response is handed back to the submitter for every terminal outcome –
// Rejected and Timeout included; those are domain outcomes, not failures.
type Response struct {
	CorrelationID string `json:"correlationId"`
	Status        Status `json:"status"`
	Approver      string `json:"approver,omitempty"`
}

// Record merges a request with its final decision. Records are keyed by
// (AgentName, CorrelationID), written exactly once and never updated.
type Record struct {
	AgentName         string          `json:"agentName"`
	CorrelationID     string          `json:"correlationId"`
	ActionDescription string          `json:"actionDescription"`
	Parameters        json.RawMessage `json:"parameters,omitempty"`
	ApproverEmails    []string        `json:"approverEmails"`
	Status            Status          `json:"status"`
	Approver          string          `json:"approver,omitempty"`
	RequestedAt       time.Time       `json:"requestedAt"`
	DecidedAt         time.Time       `json:"decidedAt"`
}

// NewRecord builds the audit record for a resolved request.
func NewRecord(request *Request, decision *Decision) *Record {
	return &Record{
		AgentName:         request.AgentName,
		CorrelationID:     request.CorrelationID,
		ActionDescription: request.ActionDescription,
		Parameters:        request.Parameters,
		ApproverEmails:    append([]string(nil), request.ApproverEmails...),
		Status:            decision.Status,
		Approver:          decision.Approver,
		RequestedAt:       request.CreatedAt,
		DecidedAt:         decision.DecidedAt,
	}
}

// Event is the envelope published on the engine fan-out queue.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"`              // *Request | *Decision | *Record
	Headers map[string]string `json:"headers,omitempty"` // optional – tenant, correlation-id etc.
}

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestResolved = "request.resolved"
	TopicActionExecuted  = "action.executed"
	TopicActionFailed    = "action.failed"
)
