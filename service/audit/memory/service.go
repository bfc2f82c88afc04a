// Package memory provides an in-memory audit store for embedded use and
// tests.
package memory

import (
	"context"
	"errors"

	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/audit"
	"github.com/viant/oversight/service/dao"
	"github.com/viant/oversight/service/dao/store"
)

func recordKey(r *approval.Record) string {
	return audit.Key(r.AgentName, r.CorrelationID)
}

// Service keeps audit records in process memory.
type Service struct {
	records *store.MemoryStore[string, approval.Record]
}

// Append writes the record once; a second append for the same key returns
// audit.ErrDuplicate.
func (s *Service) Append(ctx context.Context, record *approval.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if existing, err := s.records.Load(ctx, recordKey(record)); err == nil && existing != nil {
		return audit.ErrDuplicate
	}
	return s.records.Save(ctx, record)
}

// Load returns the record for the key or audit.ErrNotFound.
func (s *Service) Load(ctx context.Context, agentName, correlationID string) (*approval.Record, error) {
	record, err := s.records.Load(ctx, audit.Key(agentName, correlationID))
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, audit.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns all records.
func (s *Service) List(ctx context.Context) ([]*approval.Record, error) {
	return s.records.List(ctx)
}

// New creates an in-memory audit store.
func New() *Service {
	return &Service{records: store.NewMemoryStore[string, approval.Record](recordKey)}
}

var _ audit.Store = (*Service)(nil)
