package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/viant/oversight/model/approval"
)

// Client submits approval requests to a remote engine. It satisfies the
// submitter contract used by gates: validation failures come back as
// validation errors, every other failure as a plain error so the gate fails
// closed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customises a client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client for the engine at baseURL. The client sets no
// request timeout of its own – a submission blocks for the full decision
// window, so the caller's context governs.
func NewClient(baseURL string, options ...ClientOption) *Client {
	ret := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Submit runs one approval lifecycle on the remote engine and blocks until
// the terminal outcome.
func (c *Client) Submit(ctx context.Context, request *approval.Request) (*approval.Response, error) {
	response := &approval.Response{}
	if err := c.post(ctx, "/v1/approvals", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// Decide resolves a pending request on the remote engine.
func (c *Client) Decide(ctx context.Context, correlationID string, callback *approval.Callback) (*approval.Decision, error) {
	decision := &approval.Decision{}
	uri := fmt.Sprintf("/v1/approvals/%s/decision", correlationID)
	if err := c.post(ctx, uri, callback, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// Request returns one pending request from the remote engine.
func (c *Client) Request(ctx context.Context, correlationID string) (*approval.Request, error) {
	request := &approval.Request{}
	if err := c.get(ctx, "/v1/approvals/"+correlationID, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Pending lists requests awaiting a decision on the remote engine.
func (c *Client) Pending(ctx context.Context) ([]*approval.Request, error) {
	var pending []*approval.Request
	if err := c.get(ctx, "/v1/approvals/pending", &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Audit lists the remote engine's audit records.
func (c *Client) Audit(ctx context.Context) ([]*approval.Record, error) {
	var records []*approval.Record
	if err := c.get(ctx, "/v1/audit", &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) post(ctx context.Context, uri string, payload, result interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uri, bytes.NewReader(data))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, result)
}

func (c *Client) get(ctx context.Context, uri string, result interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+uri, nil)
	if err != nil {
		return err
	}
	return c.do(request, result)
}

func (c *Client) do(request *http.Request, result interface{}) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		var apiError errorResponse
		if dErr := json.NewDecoder(response.Body).Decode(&apiError); dErr != nil || apiError.Error == "" {
			return fmt.Errorf("%s %s returned %d", request.Method, request.URL.Path, response.StatusCode)
		}
		if response.StatusCode == http.StatusBadRequest && apiError.Field != "" {
			return approval.NewValidationError(apiError.Field, apiError.Error)
		}
		return fmt.Errorf("%s %s returned %d: %s", request.Method, request.URL.Path, response.StatusCode, apiError.Error)
	}
	return json.NewDecoder(response.Body).Decode(result)
}
