package oversight

import (
	"github.com/viant/oversight/service/audit"
	"github.com/viant/oversight/service/notifier"
)

// Option customises the service.
type Option func(s *Service)

// WithConfig sets the service configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithNotifier overrides the configured prompt delivery channel.
func WithNotifier(svc notifier.Service) Option {
	return func(s *Service) { s.notifier = svc }
}

// WithAuditStore overrides the configured audit store.
func WithAuditStore(store audit.Store) Option {
	return func(s *Service) { s.store = store }
}
