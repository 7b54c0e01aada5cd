package dao

import (
	"context"
)

// Service is a keyed entity store shared by the governance engines.
type Service[K comparable, T any] interface {
	// Save inserts or replaces t under its key.
	Save(ctx context.Context, t *T) error

	// Load returns ErrNotFound when no entity is stored under id.
	Load(ctx context.Context, id K) (*T, error)

	// Delete removes id; deleting a missing id is not an error.
	Delete(ctx context.Context, id K) error

	// List returns entities matching every parameter, e.g. WithState("pending").
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
