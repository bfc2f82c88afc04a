// Package webhook delivers decision prompts by POSTing them to an external
// endpoint that owns the concrete human-facing rendering (email, chat card).
// An optional bearer secret is resolved through scy; delivery failures are
// surfaced to the engine once and never retried here.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/viant/oversight/service/notifier"
	"github.com/viant/scy"
)

// Config describes the delivery endpoint.
type Config struct {
	URL         string        `json:"url" yaml:"url"`
	CallbackURL string        `json:"callbackURL,omitempty" yaml:"callbackURL,omitempty"`
	SecretURL   string        `json:"secretURL,omitempty" yaml:"secretURL,omitempty"` // scy resource holding a bearer token
	SecretKey   string        `json:"secretKey,omitempty" yaml:"secretKey,omitempty"` // e.g. "blowfish://default"
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Service posts prompts to the configured endpoint.
type Service struct {
	config  Config
	client  *http.Client
	secrets *scy.Service

	tokenOnce sync.Once
	token     string
	tokenErr  error
}

// Option customises the webhook notifier.
type Option func(*Service)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// New creates a webhook notifier.
func New(config Config, options ...Option) (*Service, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("webhook url was empty")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	ret := &Service{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		secrets: scy.New(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret, nil
}

// Notify delivers the prompt. A non-2xx response or transport failure is
// returned as an error; the engine logs it and lets the deadline resolve the
// request.
func (s *Service) Notify(ctx context.Context, prompt *Prompt) error {
	if prompt.CallbackURL == "" && s.config.CallbackURL != "" {
		clone := *prompt
		clone.CallbackURL = s.config.CallbackURL
		prompt = &clone
	}
	data, err := json.Marshal(prompt)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if s.config.SecretURL != "" {
		token, err := s.bearerToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve webhook secret: %w", err)
		}
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("failed to deliver prompt (ID: %s): %w", prompt.Request.CorrelationID, err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("prompt delivery returned status %v (ID: %s)", response.StatusCode, prompt.Request.CorrelationID)
	}
	return nil
}

// Prompt aliases the notifier prompt.
type Prompt = notifier.Prompt

// bearerToken loads the secret once and caches it for the service lifetime.
func (s *Service) bearerToken(ctx context.Context) (string, error) {
	s.tokenOnce.Do(func() {
		resource := scy.NewResource(nil, s.config.SecretURL, s.config.SecretKey)
		secret, err := s.secrets.Load(ctx, resource)
		if err != nil {
			s.tokenErr = err
			return
		}
		s.token = strings.TrimSpace(secret.String())
	})
	return s.token, s.tokenErr
}

var _ notifier.Service = (*Service)(nil)
