package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/audit"
	"github.com/viant/oversight/service/audit/memory"
	"github.com/viant/oversight/service/notifier"
)

func newRequest(id string) *approval.Request {
	return &approval.Request{
		CorrelationID:     id,
		AgentName:         "BillingAgent",
		ActionDescription: "Issue refund",
		ApproverEmails:    []string{"a@x.com"},
	}
}

func TestService_SubmitTimesOut(t *testing.T) {
	ctx := context.Background()
	auditStore := memory.New()
	svc := New(WithAuditStore(auditStore), WithDefaultTimeout(50*time.Millisecond))

	response, err := svc.Submit(ctx, newRequest("c-timeout"))
	assert.NoError(t, err, "timeout is a domain outcome, not a failure")
	assert.Equal(t, approval.StatusTimeout, response.Status)
	assert.Empty(t, response.Approver)

	record, err := auditStore.Load(ctx, "BillingAgent", "c-timeout")
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusTimeout, record.Status)
}

func TestService_SubmitApproved(t *testing.T) {
	ctx := context.Background()
	auditStore := memory.New()
	svc := New(WithAuditStore(auditStore), WithDefaultTimeout(5*time.Second))

	go func() {
		for {
			pending, _ := svc.Pending(ctx)
			if len(pending) == 1 {
				_, _ = svc.Decide(ctx, pending[0].CorrelationID, &approval.Callback{
					SelectedOption: approval.OptionApprove,
					ResponderEmail: "a@x.com",
				})
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	response, err := svc.Submit(ctx, newRequest("c-approve"))
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, response.Status)
	assert.Equal(t, "a@x.com", response.Approver)

	record, err := auditStore.Load(ctx, "BillingAgent", "c-approve")
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, record.Status)
	assert.Equal(t, "a@x.com", record.Approver)
	assert.Equal(t, "Issue refund", record.ActionDescription)
}

func TestService_SubmitRejectedLegacyCallback(t *testing.T) {
	ctx := context.Background()
	svc := New(WithDefaultTimeout(5 * time.Second))

	stop := AutoDecider(ctx, svc, func(*approval.Request) *approval.Callback {
		return &approval.Callback{UserResponse: "Reject", Approver: "ops@x.com"}
	}, 5*time.Millisecond)
	defer stop()

	response, err := svc.Submit(ctx, newRequest("c-reject"))
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, response.Status)
	assert.Equal(t, "ops@x.com", response.Approver)
}

func TestService_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	auditStore := memory.New()
	svc := New(WithAuditStore(auditStore))

	request := newRequest("c-invalid")
	request.ApproverEmails = nil

	_, err := svc.Submit(ctx, request)
	assert.Error(t, err)
	assert.True(t, approval.IsValidationError(err), "validation is reported distinctly from refusal")

	// fail fast: no side effects
	records, err := auditStore.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, records)
	pending, _ := svc.Pending(ctx)
	assert.Empty(t, pending)
}

func TestService_SubmitGeneratesCorrelationID(t *testing.T) {
	ctx := context.Background()
	svc := New(WithDefaultTimeout(20 * time.Millisecond))

	request := newRequest("")
	response, err := svc.Submit(ctx, request)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.CorrelationID)
}

func TestService_LateDecisionIgnored(t *testing.T) {
	ctx := context.Background()
	auditStore := memory.New()
	svc := New(WithAuditStore(auditStore), WithDefaultTimeout(30*time.Millisecond))

	response, err := svc.Submit(ctx, newRequest("c-late"))
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusTimeout, response.Status)

	// A callback after the deadline committed Timeout must not reopen the
	// terminal record.
	_, err = svc.Decide(ctx, "c-late", &approval.Callback{SelectedOption: approval.OptionApprove})
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	record, err := auditStore.Load(ctx, "BillingAgent", "c-late")
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusTimeout, record.Status)
}

func TestService_DecideUnknown(t *testing.T) {
	svc := New()
	_, err := svc.Decide(context.Background(), "nope", &approval.Callback{SelectedOption: approval.OptionApprove})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DecideInvalidCallback(t *testing.T) {
	svc := New()
	_, err := svc.Decide(context.Background(), "c-1", &approval.Callback{SelectedOption: "Maybe"})
	assert.Error(t, err)
	assert.True(t, approval.IsValidationError(err))
}

func TestService_DuplicateDecision(t *testing.T) {
	ctx := context.Background()
	svc := New(WithDefaultTimeout(5 * time.Second))

	done := make(chan *approval.Response, 1)
	go func() {
		response, _ := svc.Submit(ctx, newRequest("c-dup"))
		done <- response
	}()

	var first *approval.Decision
	var err error
	for {
		first, err = svc.Decide(ctx, "c-dup", &approval.Callback{SelectedOption: approval.OptionApprove, ResponderEmail: "a@x.com"})
		if !errors.Is(err, ErrNotFound) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, first.Status)

	response := <-done
	assert.Equal(t, approval.StatusApproved, response.Status)

	_, err = svc.Decide(ctx, "c-dup", &approval.Callback{SelectedOption: approval.OptionReject})
	assert.ErrorIs(t, err, ErrAlreadyResolved, "first arrival wins")
}

func TestService_DuplicateSubmission(t *testing.T) {
	ctx := context.Background()
	svc := New(WithDefaultTimeout(time.Second))

	go func() {
		_, _ = svc.Submit(ctx, newRequest("c-same"))
	}()
	for {
		pending, _ := svc.Pending(ctx)
		if len(pending) == 1 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	_, err := svc.Submit(ctx, newRequest("c-same"))
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

type failingNotifier struct{}

func (f *failingNotifier) Notify(context.Context, *notifier.Prompt) error {
	return fmt.Errorf("channel unavailable")
}

func TestService_DispatchFailureResolvesTimeout(t *testing.T) {
	ctx := context.Background()
	auditStore := memory.New()
	svc := New(
		WithNotifier(&failingNotifier{}),
		WithAuditStore(auditStore),
		WithDefaultTimeout(30*time.Millisecond),
	)

	response, err := svc.Submit(ctx, newRequest("c-nodispatch"))
	assert.NoError(t, err, "dispatch failure must not abort the lifecycle")
	assert.Equal(t, approval.StatusTimeout, response.Status)

	record, err := auditStore.Load(ctx, "BillingAgent", "c-nodispatch")
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusTimeout, record.Status)

	consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	created, err := svc.Queue().Consume(consumeCtx)
	assert.NoError(t, err)
	assert.Equal(t, approval.TopicRequestCreated, created.T().Topic)
	assert.Equal(t, string(approval.StatusError), created.T().Headers["status"], "dispatch faults surface on the created event")
	assert.NoError(t, created.Ack())
}

type failingStore struct{}

func (f *failingStore) Append(context.Context, *approval.Record) error {
	return fmt.Errorf("disk full")
}

func (f *failingStore) Load(context.Context, string, string) (*approval.Record, error) {
	return nil, audit.ErrNotFound
}

func (f *failingStore) List(context.Context) ([]*approval.Record, error) {
	return nil, nil
}

func TestService_AuditFailureDoesNotBlockResponse(t *testing.T) {
	ctx := context.Background()
	svc := New(WithAuditStore(&failingStore{}), WithDefaultTimeout(30*time.Millisecond))

	response, err := svc.Submit(ctx, newRequest("c-noaudit"))
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusTimeout, response.Status)
}

func TestService_SubmitterCancellationKeepsLifecycle(t *testing.T) {
	background := context.Background()
	auditStore := memory.New()
	svc := New(WithAuditStore(auditStore), WithDefaultTimeout(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(background, 10*time.Millisecond)
	defer cancel()
	_, err := svc.Submit(ctx, newRequest("c-abandoned"))
	assert.Error(t, err, "the local wait is abandoned")

	// The engine instance keeps running to its deadline and still writes
	// the audit record – cancellation never propagates backwards.
	assert.Eventually(t, func() bool {
		record, lErr := auditStore.Load(background, "BillingAgent", "c-abandoned")
		return lErr == nil && record.Status == approval.StatusTimeout
	}, time.Second, 10*time.Millisecond)
}

func TestService_PublishesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	svc := New(WithDefaultTimeout(30 * time.Millisecond))

	_, err := svc.Submit(ctx, newRequest("c-events"))
	assert.NoError(t, err)

	consumeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	created, err := svc.Queue().Consume(consumeCtx)
	assert.NoError(t, err)
	assert.Equal(t, approval.TopicRequestCreated, created.T().Topic)
	assert.Equal(t, string(approval.StatusInitiated), created.T().Headers["status"])
	assert.NoError(t, created.Ack())

	resolved, err := svc.Queue().Consume(consumeCtx)
	assert.NoError(t, err)
	assert.Equal(t, approval.TopicRequestResolved, resolved.T().Topic)
	assert.Equal(t, string(approval.StatusTimeout), resolved.T().Headers["status"])
	assert.NoError(t, resolved.Ack())
}

func TestService_PendingPurgedAfterResolution(t *testing.T) {
	ctx := context.Background()
	svc := New(WithDefaultTimeout(5 * time.Second))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Submit(ctx, newRequest("c-purge"))
	}()

	for {
		pending, err := svc.Pending(ctx)
		assert.NoError(t, err)
		if len(pending) == 1 {
			assert.Equal(t, "c-purge", pending[0].CorrelationID)
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	request, err := svc.Request(ctx, "c-purge")
	assert.NoError(t, err)
	assert.Equal(t, "BillingAgent", request.AgentName)

	_, err = svc.Decide(ctx, "c-purge", &approval.Callback{SelectedOption: approval.OptionApprove})
	assert.NoError(t, err)
	<-done

	// resolution releases everything the submission parked
	pending, err := svc.Pending(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pending, "resolved requests must not linger in the pending set")
	_, err = svc.Request(ctx, "c-purge")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_AdvanceFaultLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	svc := New()
	w := newWaiter(&approval.Request{CorrelationID: "c-fault"})
	svc.advance(w, EventRespond)

	assert.Contains(t, buf.String(), "lifecycle fault")
	assert.Contains(t, buf.String(), "illegal transition")
	assert.Equal(t, StateInitialized, w.currentState(), "a faulted advance must not move the state")
}

func TestAutoApprove(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(WithDefaultTimeout(5 * time.Second))

	stop := AutoApprove(ctx, svc, "auto@x.com", 5*time.Millisecond)
	defer stop()

	response, err := svc.Submit(ctx, newRequest("c-auto"))
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, response.Status)
	assert.Equal(t, "auto@x.com", response.Approver)
}
