package approval

import (
	"strings"
)

// Prompt option labels offered to the human decider.
const (
	OptionApprove = "Approve"
	OptionReject  = "Reject"
)

// Callback carries the human decision as delivered by the prompt channel.
// The upstream provider renamed its fields across connector versions, so two
// conventions are accepted: the current one (selectedOption/responderEmail)
// and the legacy one (userResponse/approver). This is a compatibility shim
// maintained defensively – neither convention is a stable protocol.
type Callback struct {
	SelectedOption string `json:"selectedOption,omitempty"`
	UserResponse   string `json:"userResponse,omitempty"` // legacy field name
	ResponderEmail string `json:"responderEmail,omitempty"`
	Approver       string `json:"approver,omitempty"` // legacy field name
}

// Option returns the chosen option, preferring the current field name.
func (c *Callback) Option() string {
	if c.SelectedOption != "" {
		return c.SelectedOption
	}
	return c.UserResponse
}

// Identity returns the responder identity, empty when none was supplied.
func (c *Callback) Identity() string {
	if c.ResponderEmail != "" {
		return c.ResponderEmail
	}
	return c.Approver
}

// Normalize maps the chosen option onto the canonical terminal status set.
// Matching is case-insensitive and tolerates the past-tense variants some
// provider versions emitted.
func (c *Callback) Normalize() (Status, error) {
	option := strings.TrimSpace(c.Option())
	switch strings.ToLower(option) {
	case "approve", "approved":
		return StatusApproved, nil
	case "reject", "rejected":
		return StatusRejected, nil
	case "":
		return "", NewValidationError("selectedOption", "was empty")
	}
	return "", NewValidationError("selectedOption", "unsupported value "+option)
}
