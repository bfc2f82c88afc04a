package httpapi

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/viant/oversight/engine"
	"github.com/viant/oversight/model/approval"

	"net/http/httptest"
)

func newRequest(id string) *approval.Request {
	return &approval.Request{
		CorrelationID:     id,
		AgentName:         "BillingAgent",
		ActionDescription: "Issue refund",
		ApproverEmails:    []string{"a@x.com"},
	}
}

func startServer(t *testing.T, options ...engine.Option) (*engine.Service, *Client, func()) {
	t.Helper()
	service := engine.New(options...)
	server := NewServer(service)
	testServer := httptest.NewServer(server.Handler())
	client := NewClient(testServer.URL)
	return service, client, testServer.Close
}

func TestServer_SubmitApproved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, client, closeFn := startServer(t, engine.WithDefaultTimeout(5*time.Second))
	defer closeFn()

	stop := engine.AutoApprove(ctx, service, "a@x.com", 5*time.Millisecond)
	defer stop()

	response, err := client.Submit(ctx, newRequest("h-approve"))
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, response.Status)
	assert.Equal(t, "a@x.com", response.Approver)
}

func TestServer_SubmitTimeout(t *testing.T) {
	_, client, closeFn := startServer(t, engine.WithDefaultTimeout(30*time.Millisecond))
	defer closeFn()

	response, err := client.Submit(context.Background(), newRequest("h-timeout"))
	assert.NoError(t, err, "timeout travels as a 200, not a transport failure")
	assert.Equal(t, approval.StatusTimeout, response.Status)

	records, err := client.Audit(context.Background())
	assert.NoError(t, err)
	if assert.Len(t, records, 1) {
		assert.Equal(t, approval.StatusTimeout, records[0].Status)
	}
}

func TestServer_SubmitValidation(t *testing.T) {
	_, client, closeFn := startServer(t)
	defer closeFn()

	request := newRequest("h-invalid")
	request.ApproverEmails = nil
	_, err := client.Submit(context.Background(), request)
	assert.Error(t, err)
	assert.True(t, approval.IsValidationError(err), "400 rebuilds the typed validation error")
}

func TestServer_DecideFlow(t *testing.T) {
	ctx := context.Background()
	_, client, closeFn := startServer(t, engine.WithDefaultTimeout(5*time.Second))
	defer closeFn()

	done := make(chan *approval.Response, 1)
	go func() {
		response, _ := client.Submit(ctx, newRequest("h-decide"))
		done <- response
	}()

	var pending []*approval.Request
	for {
		var err error
		pending, err = client.Pending(ctx)
		assert.NoError(t, err)
		if len(pending) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, "h-decide", pending[0].CorrelationID)

	request, err := client.Request(ctx, "h-decide")
	assert.NoError(t, err)
	assert.Equal(t, "BillingAgent", request.AgentName)

	decision, err := client.Decide(ctx, "h-decide", &approval.Callback{
		SelectedOption: approval.OptionReject,
		ResponderEmail: "ops@x.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, decision.Status)
	assert.Equal(t, "ops@x.com", decision.Approver)

	response := <-done
	assert.Equal(t, approval.StatusRejected, response.Status)

	// resolved requests leave the pending set
	_, err = client.Request(ctx, "h-decide")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	// second decision conflicts
	_, err = client.Decide(ctx, "h-decide", &approval.Callback{SelectedOption: approval.OptionApprove})
	assert.Error(t, err)
	assert.False(t, approval.IsValidationError(err))
	assert.Contains(t, err.Error(), "409")
}

func TestServer_DecideUnknown(t *testing.T) {
	_, client, closeFn := startServer(t)
	defer closeFn()

	_, err := client.Decide(context.Background(), "nope", &approval.Callback{SelectedOption: approval.OptionApprove})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestServer_EventStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := engine.New(engine.WithDefaultTimeout(50 * time.Millisecond))
	server := NewServer(service)
	testServer := httptest.NewServer(server.Handler())
	defer testServer.Close()
	go server.pumpEvents(ctx)

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	defer func() { _ = conn.Close() }()

	client := NewClient(testServer.URL)
	_, err = client.Submit(ctx, newRequest("h-events"))
	assert.NoError(t, err)

	topics := map[string]bool{}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		_, data, rErr := conn.ReadMessage()
		assert.NoError(t, rErr)
		var event approval.Event
		assert.NoError(t, json.Unmarshal(data, &event))
		topics[event.Topic] = true
	}
	assert.True(t, topics[approval.TopicRequestCreated])
	assert.True(t, topics[approval.TopicRequestResolved])
}
