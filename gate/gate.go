package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/viant/oversight/internal/clock"
	"github.com/viant/oversight/internal/idgen"
	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/policy"
	"github.com/viant/oversight/service/messaging"
	"github.com/viant/toolbox"
)

// DefaultRefusal is the stand-in result handed to callers expecting a textual
// outcome when the gated operation was not approved.
const DefaultRefusal = "Approval denied or timed out via human oversight approval gate."

// Submitter runs one approval lifecycle to its terminal outcome. The engine
// implements it in-process; the httpapi client implements it over the wire.
type Submitter interface {
	Submit(ctx context.Context, request *approval.Request) (*approval.Response, error)
}

// Operation is the sensitive action guarded by a gate.
type Operation[I, O any] func(ctx context.Context, input I) (O, error)

// Config identifies the gated action to its approvers.
type Config struct {
	// AgentName identifies the acting component, e.g. "BillingAgent".
	AgentName string `json:"agentName" yaml:"agentName"`

	// ActionDescription tells the approver what is about to happen.
	ActionDescription string `json:"actionDescription" yaml:"actionDescription"`

	// ApproverEmails lists who may decide.
	ApproverEmails []string `json:"approverEmails" yaml:"approverEmails"`

	// Timeout bounds the decision window; zero defers to the engine default.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Gate binds an operation to an approval flow and a refusal value.
type Gate[I, O any] struct {
	submitter Submitter
	config    Config
	refusal   O
	operation Operation[I, O]
	events    messaging.Queue[approval.Event]
}

// Option customises a gate.
type Option[I, O any] func(*Gate[I, O])

// WithEvents attaches a queue that receives action.executed / action.failed
// events for approved runs.
func WithEvents[I, O any](queue messaging.Queue[approval.Event]) Option[I, O] {
	return func(g *Gate[I, O]) {
		g.events = queue
	}
}

// New creates a gate around operation. refusal is returned whenever the
// operation must not run: rejection, timeout, a blocking policy, or any
// infrastructure fault.
func New[I, O any](submitter Submitter, config Config, refusal O, operation Operation[I, O], options ...Option[I, O]) *Gate[I, O] {
	ret := &Gate[I, O]{
		submitter: submitter,
		config:    config,
		refusal:   refusal,
		operation: operation,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Run gates one execution of the operation. The caller blocks until the
// verdict: on approval the operation runs exactly once and its result and
// error are returned as-is; on rejection or timeout the refusal value is
// returned with a nil error. Only an invalid request surfaces as an error –
// everything else fails closed to the refusal value.
func (g *Gate[I, O]) Run(ctx context.Context, input I) (O, error) {
	var zero O

	if p := policy.FromContext(ctx); p != nil {
		if p.Mode == policy.ModeDeny || !p.IsAllowed(g.config.AgentName) {
			return g.refusal, nil
		}
		if p.Mode == policy.ModeAuto {
			return g.execute(ctx, input, "")
		}
	}

	request := &approval.Request{
		CorrelationID:     idgen.New(),
		AgentName:         g.config.AgentName,
		ActionDescription: g.config.ActionDescription,
		Parameters:        serializeParameters(input),
		ApproverEmails:    g.config.ApproverEmails,
		CreatedAt:         clock.Now(),
	}
	submitCtx := ctx
	if g.config.Timeout > 0 {
		expiresAt := request.CreatedAt.Add(g.config.Timeout)
		request.ExpiresAt = &expiresAt

		var cancel context.CancelFunc
		// Leave headroom for the engine to log and respond after its own
		// deadline fires.
		submitCtx, cancel = context.WithTimeout(ctx, g.config.Timeout+5*time.Second)
		defer cancel()
	}

	response, err := g.submitter.Submit(submitCtx, request)
	if err != nil {
		if approval.IsValidationError(err) {
			return zero, err
		}
		// Fail closed: an unreachable engine or an abandoned wait must never
		// let the operation run unapproved.
		log.Printf("approval submission failed (ID: %s): %v", request.CorrelationID, err)
		return g.refusal, nil
	}
	if response == nil || response.Status != approval.StatusApproved {
		return g.refusal, nil
	}
	return g.execute(ctx, input, request.CorrelationID)
}

// Refusal returns the configured refusal value.
func (g *Gate[I, O]) Refusal() O {
	return g.refusal
}

func (g *Gate[I, O]) execute(ctx context.Context, input I, correlationID string) (O, error) {
	output, err := g.operation(ctx, input)
	if err != nil {
		g.publish(ctx, approval.TopicActionFailed, approval.StatusExecutionFailed, map[string]string{
			"correlationId": correlationID,
			"agentName":     g.config.AgentName,
			"error":         err.Error(),
		})
		return output, err
	}
	g.publish(ctx, approval.TopicActionExecuted, approval.StatusExecuted, map[string]string{
		"correlationId": correlationID,
		"agentName":     g.config.AgentName,
	})
	return output, nil
}

func (g *Gate[I, O]) publish(ctx context.Context, topic string, status approval.Status, data interface{}) {
	if g.events == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_ = g.events.Publish(publishCtx, &approval.Event{
		Topic:   topic,
		Data:    data,
		Headers: map[string]string{"status": string(status)},
	})
}

// serializeParameters renders the operation input for the approver. Structs
// are flattened to a map first so that unexported noise drops out; anything
// that resists serialisation is replaced with a typed placeholder so the
// prompt still goes out.
func serializeParameters(input interface{}) json.RawMessage {
	var aMap map[string]interface{}
	if err := toolbox.DefaultConverter.AssignConverted(&aMap, input); err == nil {
		if data, mErr := json.Marshal(aMap); mErr == nil {
			return data
		}
	}
	if data, err := json.Marshal(input); err == nil {
		return data
	}
	fallback, _ := json.Marshal(fmt.Sprintf("<unserializable: %T>", input))
	return fallback
}
