package dao

import (
	"context"
)

// Service is a generic persistence contract for keyed entities. Adapters
// back it with memory, filesystem or database storage without callers
// changing.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, key K) (*T, error)

	Delete(ctx context.Context, key K) error

	List(ctx context.Context) ([]*T, error)
}
