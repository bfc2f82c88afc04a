package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/audit"
)

func TestService_AppendOnce(t *testing.T) {
	ctx := context.Background()
	svc, err := New(":memory:")
	assert.NoError(t, err)
	defer func() { _ = svc.Close() }()

	record := &approval.Record{
		AgentName:         "BillingAgent",
		CorrelationID:     "c-1",
		ActionDescription: "Issue refund",
		Parameters:        json.RawMessage(`{"amount":42}`),
		ApproverEmails:    []string{"a@x.com", "b@x.com"},
		Status:            approval.StatusRejected,
		Approver:          "b@x.com",
		RequestedAt:       time.Now().UTC().Truncate(time.Millisecond),
		DecidedAt:         time.Now().UTC().Truncate(time.Millisecond),
	}

	assert.NoError(t, svc.Append(ctx, record))
	assert.ErrorIs(t, svc.Append(ctx, record), audit.ErrDuplicate)

	loaded, err := svc.Load(ctx, "BillingAgent", "c-1")
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, loaded.Status)
	assert.Equal(t, "b@x.com", loaded.Approver)
	assert.Equal(t, record.ApproverEmails, loaded.ApproverEmails)
	assert.JSONEq(t, `{"amount":42}`, string(loaded.Parameters))
	assert.True(t, record.RequestedAt.Equal(loaded.RequestedAt))

	_, err = svc.Load(ctx, "BillingAgent", "absent")
	assert.ErrorIs(t, err, audit.ErrNotFound)

	records, err := svc.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
