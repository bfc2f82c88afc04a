package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/viant/oversight/internal/clock"
	"github.com/viant/oversight/internal/idgen"
	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/audit"
	amemory "github.com/viant/oversight/service/audit/memory"
	"github.com/viant/oversight/service/dao"
	"github.com/viant/oversight/service/dao/store"
	"github.com/viant/oversight/service/messaging"
	qmem "github.com/viant/oversight/service/messaging/memory"
	"github.com/viant/oversight/service/notifier"
	nmemory "github.com/viant/oversight/service/notifier/memory"
	"github.com/viant/oversight/tracing"
)

var (
	// ErrNotFound is returned for a decision targeting an unknown request.
	ErrNotFound = errors.New("engine: approval request not found")

	// ErrAlreadyResolved is returned for a decision arriving after the
	// terminal status was committed; the recorded outcome never changes.
	ErrAlreadyResolved = errors.New("engine: approval request already resolved")

	// ErrDuplicateRequest is returned when a correlation id is submitted
	// twice.
	ErrDuplicateRequest = errors.New("engine: duplicate correlation id")
)

// Config represents the engine configuration.
type Config struct {
	// DefaultTimeout bounds the decision window of requests that carry no
	// explicit deadline.
	DefaultTimeout time.Duration `json:"defaultTimeout" yaml:"defaultTimeout"`

	// EventBuffer sizes the fan-out queue.
	EventBuffer int `json:"eventBuffer" yaml:"eventBuffer"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 2 * time.Minute,
		EventBuffer:    100,
	}
}

// UnmarshalYAML accepts defaultTimeout as a duration string ("45s") or as
// nanoseconds. Absent fields keep their current values.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		DefaultTimeout interface{} `yaml:"defaultTimeout"`
		EventBuffer    int         `yaml:"eventBuffer"`
	}
	raw := rawConfig{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw.EventBuffer != 0 {
		c.EventBuffer = raw.EventBuffer
	}
	switch value := raw.DefaultTimeout.(type) {
	case nil:
	case string:
		duration, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid defaultTimeout %q: %w", value, err)
		}
		c.DefaultTimeout = duration
	case int:
		c.DefaultTimeout = time.Duration(value)
	case int64:
		c.DefaultTimeout = time.Duration(value)
	default:
		return fmt.Errorf("invalid defaultTimeout: %v", raw.DefaultTimeout)
	}
	return nil
}

// Service coordinates one approval lifecycle per submitted request.
type Service struct {
	config   Config
	notifier notifier.Service
	store    audit.Store

	waiters   *registry
	requests  dao.Service[string, approval.Request]
	decisions dao.Service[string, approval.Decision]

	events *qmem.Queue[approval.Event]
}

// key selectors – grab the correlation id
func requestKey(r *approval.Request) string { return r.CorrelationID }

func decisionKey(d *approval.Decision) string { return d.CorrelationID }

// New creates an engine. Without options it runs fully in-memory: prompts go
// to an in-process feed and audit records to an in-memory store.
func New(options ...Option) *Service {
	ret := &Service{
		config:    DefaultConfig(),
		waiters:   newRegistry(),
		requests:  store.NewMemoryStore[string, approval.Request](requestKey),
		decisions: store.NewMemoryStore[string, approval.Decision](decisionKey),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.notifier == nil {
		ret.notifier = nmemory.New()
	}
	if ret.store == nil {
		ret.store = amemory.New()
	}
	queueConfig := qmem.DefaultConfig()
	if ret.config.EventBuffer > 0 {
		queueConfig.QueueBuffer = ret.config.EventBuffer
	}
	ret.events = qmem.NewQueue[approval.Event](queueConfig)
	return ret
}

// Submit runs one approval lifecycle and blocks until the terminal outcome
// or ctx cancellation. Validation failures return immediately with no side
// effects; every terminal status (Rejected and Timeout included) is a normal
// response, not an error. Cancelling ctx abandons only this wait – the
// lifecycle keeps running to its deadline so the audit trail stays complete.
func (s *Service) Submit(ctx context.Context, request *approval.Request) (response *approval.Response, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Submit", "SERVER")
	defer func() { tracing.EndSpan(span, err) }()

	if request == nil {
		return nil, approval.NewValidationError("request", "was nil")
	}
	if request.CorrelationID == "" {
		request.CorrelationID = idgen.New()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = clock.Now()
	}
	if err = request.Validate(); err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{"approval.correlationId": request.CorrelationID, "approval.agent": request.AgentName})

	if decided, dErr := s.decisions.Load(ctx, request.CorrelationID); dErr == nil && decided != nil {
		return nil, ErrDuplicateRequest
	}
	w := newWaiter(request)
	if !s.waiters.create(w) {
		return nil, ErrDuplicateRequest
	}
	_ = s.requests.Save(ctx, request)

	deadline := s.deadline(request)

	// Dispatch failure does not abort the lifecycle: there is no synchronous
	// caller to hand the error back to, so the request waits out its
	// deadline and resolves to Timeout.
	created := approval.StatusInitiated
	if nErr := s.notifier.Notify(ctx, notifier.NewPrompt(request)); nErr != nil {
		log.Printf("failed to dispatch approval prompt (ID: %s): %v", request.CorrelationID, nErr)
		created = approval.StatusError
	}
	s.advance(w, EventNotify)
	s.publish(ctx, approval.TopicRequestCreated, created, request)

	go s.resolve(context.WithoutCancel(ctx), w, deadline)

	select {
	case <-w.responded:
		decision := w.decision
		return &approval.Response{
			CorrelationID: request.CorrelationID,
			Status:        decision.Status,
			Approver:      decision.Approver,
		}, nil
	case <-ctx.Done():
		err = ctx.Err()
		return nil, err
	}
}

// Decide resolves a pending request from a decision callback. A callback
// arriving after the terminal status was committed returns
// ErrAlreadyResolved and never reopens or overwrites the record.
func (s *Service) Decide(ctx context.Context, correlationID string, callback *approval.Callback) (decision *approval.Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Decide", "SERVER")
	defer func() { tracing.EndSpan(span, err) }()

	if correlationID == "" {
		return nil, approval.NewValidationError("correlationId", "was empty")
	}
	if callback == nil {
		return nil, approval.NewValidationError("callback", "was nil")
	}
	span.WithAttributes(map[string]string{"approval.correlationId": correlationID})

	status, err := callback.Normalize()
	if err != nil {
		return nil, err
	}
	if decided, dErr := s.decisions.Load(ctx, correlationID); dErr == nil && decided != nil {
		err = ErrAlreadyResolved
		return nil, err
	}
	w := s.waiters.get(correlationID)
	if w == nil {
		err = ErrNotFound
		return nil, err
	}
	decision = &approval.Decision{
		CorrelationID: correlationID,
		Status:        status,
		Approver:      callback.Identity(),
		DecidedAt:     clock.Now(),
	}
	if !w.commit(decision) {
		err = ErrAlreadyResolved
		return nil, err
	}
	return decision, nil
}

// Pending lists requests still awaiting a decision.
func (s *Service) Pending(ctx context.Context) ([]*approval.Request, error) {
	return s.requests.List(ctx)
}

// Request returns a pending request by correlation id, or ErrNotFound once
// it resolved (resolved requests live on in the audit trail only).
func (s *Service) Request(ctx context.Context, correlationID string) (*approval.Request, error) {
	request, err := s.requests.Load(ctx, correlationID)
	if errors.Is(err, dao.ErrNotFound) {
		return nil, ErrNotFound
	}
	return request, err
}

// Queue exposes the lifecycle event fan-out.
func (s *Service) Queue() messaging.Queue[approval.Event] {
	return s.events
}

// Audit exposes the audit store for read access.
func (s *Service) Audit() audit.Store {
	return s.store
}

// resolve owns the remainder of one lifecycle: it waits for the committed
// decision or the deadline, persists the decision and the audit record, and
// only then releases the submitter. It runs detached from the submission
// context on purpose – an abandoned submitter must not truncate the trail.
func (s *Service) resolve(ctx context.Context, w *waiter, deadline time.Time) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-w.done:
	case <-timer.C:
		w.commit(&approval.Decision{
			CorrelationID: w.request.CorrelationID,
			Status:        approval.StatusTimeout,
			DecidedAt:     clock.Now(),
		})
	}
	// decision is immutable once done is closed
	decision := w.decision

	s.advance(w, eventFor(decision.Status))
	_ = s.decisions.Save(ctx, decision)
	s.advance(w, EventLog)

	record := approval.NewRecord(w.request, decision)
	if aErr := s.store.Append(ctx, record); aErr != nil {
		// Audit durability is deliberately lower priority than a timely
		// caller response.
		log.Printf("failed to persist audit record (ID: %s): %v", w.request.CorrelationID, aErr)
	}
	s.publish(ctx, approval.TopicRequestResolved, decision.Status, decision)

	s.advance(w, EventRespond)
	s.waiters.delete(w.request.CorrelationID)
	_ = s.requests.Delete(ctx, w.request.CorrelationID)
	close(w.responded)
}

// advance applies a lifecycle event to the waiter; an illegal transition is
// a wiring fault, reported in the same channel as other engine faults.
func (s *Service) advance(w *waiter, event Event) {
	if err := w.advance(event); err != nil {
		log.Printf("lifecycle fault (ID: %s): %v", w.request.CorrelationID, err)
	}
}

func (s *Service) deadline(request *approval.Request) time.Time {
	if request.ExpiresAt != nil && !request.ExpiresAt.IsZero() {
		return *request.ExpiresAt
	}
	return clock.Now().Add(s.config.DefaultTimeout)
}

// publish is best-effort fan-out: with no consumer attached a full queue
// drops the event rather than stalling resolution. The lifecycle status
// travels in the event headers so observers need not inspect the payload.
func (s *Service) publish(ctx context.Context, topic string, status approval.Status, data interface{}) {
	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_ = s.events.Publish(publishCtx, &approval.Event{
		Topic:   topic,
		Data:    data,
		Headers: map[string]string{"status": string(status)},
	})
}
