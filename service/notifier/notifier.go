// Package notifier defines the Notification Channel boundary: delivery of a
// human-actionable decision prompt offering exactly two terminal choices.
// Delivery is at-most-once from the engine's point of view – a failed
// dispatch is reported once and never retried; the request then runs out its
// deadline.
package notifier

import (
	"context"

	"github.com/viant/oversight/model/approval"
)

// Service delivers a decision prompt to the human approvers. Implementations
// must accept at most one response per prompt; the concrete delivery
// mechanism (email, chat card, webhook fan-out) is adapter-specific.
type Service interface {
	Notify(ctx context.Context, prompt *Prompt) error
}

// Prompt is the human-facing decision request.
type Prompt struct {
	Request     *approval.Request `json:"request"`
	Options     []string          `json:"options"`               // exactly {Approve, Reject}
	CallbackURL string            `json:"callbackURL,omitempty"` // where the decision should be posted
}

// NewPrompt builds a prompt for the given request.
func NewPrompt(request *approval.Request) *Prompt {
	return &Prompt{
		Request: request,
		Options: []string{approval.OptionApprove, approval.OptionReject},
	}
}
