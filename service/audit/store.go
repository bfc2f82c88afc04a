// Package audit defines the append-only audit trail of approval outcomes.
// Records are keyed by (agentName, correlationId); the contract has no
// update or delete operation – a record is written exactly once, at
// resolution. Reporting over historical records is an external concern.
package audit

import (
	"context"
	"errors"

	"github.com/viant/oversight/model/approval"
)

var (
	// ErrDuplicate is returned on a second append for the same key.
	ErrDuplicate = errors.New("audit: record already written")

	// ErrNotFound is returned when no record exists for the key.
	ErrNotFound = errors.New("audit: record not found")
)

// Store persists immutable audit records. Concurrent appends on distinct
// keys must be safe; appends never block the caller's response path.
type Store interface {
	Append(ctx context.Context, record *approval.Record) error
	Load(ctx context.Context, agentName, correlationID string) (*approval.Record, error)
	List(ctx context.Context) ([]*approval.Record, error)
}

// Key builds the composite record key.
func Key(agentName, correlationID string) string {
	return agentName + "/" + correlationID
}
