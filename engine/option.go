package engine

import (
	"time"

	"github.com/viant/oversight/service/audit"
	"github.com/viant/oversight/service/notifier"
)

// Option customises the engine.
type Option func(*Service)

// WithNotifier sets the prompt delivery channel.
func WithNotifier(svc notifier.Service) Option {
	return func(s *Service) { s.notifier = svc }
}

// WithAuditStore sets the audit store implementation.
func WithAuditStore(store audit.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithConfig sets the engine configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithDefaultTimeout sets the decision window for requests without an
// explicit deadline.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.config.DefaultTimeout = timeout
		}
	}
}
