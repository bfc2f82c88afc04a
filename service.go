package oversight

import (
	"context"

	"github.com/viant/oversight/engine"
	"github.com/viant/oversight/gate"
	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/policy"
	"github.com/viant/oversight/service/audit"
	afsaudit "github.com/viant/oversight/service/audit/fs"
	sqlaudit "github.com/viant/oversight/service/audit/sqlite"
	"github.com/viant/oversight/service/httpapi"
	"github.com/viant/oversight/service/notifier"
	"github.com/viant/oversight/service/notifier/webhook"
)

// Service is the high-level façade: it wires the configured audit store and
// notifier into an engine and exposes gates, the HTTP surface and read
// access to the trail.
type Service struct {
	config   *Config
	engine   *engine.Service
	notifier notifier.Service
	store    audit.Store
}

func (s *Service) init() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.store == nil {
		switch s.config.Audit.Vendor {
		case AuditFs:
			store, err := afsaudit.New(s.config.Audit.BaseURL)
			if err != nil {
				return err
			}
			s.store = store
		case AuditSQLite:
			store, err := sqlaudit.New(s.config.Audit.DSN)
			if err != nil {
				return err
			}
			s.store = store
		}
	}
	if s.notifier == nil && s.config.Notifier.Vendor == NotifierWebhook {
		svc, err := webhook.New(s.config.Notifier.Webhook)
		if err != nil {
			return err
		}
		s.notifier = svc
	}

	options := []engine.Option{engine.WithConfig(s.config.Engine)}
	if s.store != nil {
		options = append(options, engine.WithAuditStore(s.store))
	}
	if s.notifier != nil {
		options = append(options, engine.WithNotifier(s.notifier))
	}
	s.engine = engine.New(options...)
	s.store = s.engine.Audit()
	return nil
}

// New creates a service. Without options it runs fully in-memory.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Engine returns the approval engine.
func (s *Service) Engine() *engine.Service {
	return s.engine
}

// Audit returns the audit store.
func (s *Service) Audit() audit.Store {
	return s.store
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Submit runs one approval lifecycle to its terminal outcome.
func (s *Service) Submit(ctx context.Context, request *approval.Request) (*approval.Response, error) {
	return s.engine.Submit(ctx, request)
}

// Decide resolves a pending request from a decision callback.
func (s *Service) Decide(ctx context.Context, correlationID string, callback *approval.Callback) (*approval.Decision, error) {
	return s.engine.Decide(ctx, correlationID, callback)
}

// Pending lists requests still awaiting a decision.
func (s *Service) Pending(ctx context.Context) ([]*approval.Request, error) {
	return s.engine.Pending(ctx)
}

// HTTPServer builds the HTTP surface around the engine.
func (s *Service) HTTPServer() *httpapi.Server {
	return httpapi.NewServer(s.engine)
}

// Serve runs the HTTP surface on the configured address until ctx is
// cancelled.
func (s *Service) Serve(ctx context.Context) error {
	if s.config.Policy != nil {
		ctx = policy.WithPolicy(ctx, policy.FromConfig(s.config.Policy))
	}
	return s.HTTPServer().Serve(ctx, s.config.HTTP.Addr)
}

// NewGate wraps operation with an approval flow backed by the service
// engine; refusal is returned whenever the operation must not run. The gate
// publishes action.executed / action.failed to the engine event queue.
func NewGate[I, O any](s *Service, config gate.Config, refusal O, operation gate.Operation[I, O], options ...gate.Option[I, O]) *gate.Gate[I, O] {
	options = append([]gate.Option[I, O]{gate.WithEvents[I, O](s.engine.Queue())}, options...)
	return gate.New(s.engine, config, refusal, operation, options...)
}
