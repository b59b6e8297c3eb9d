package store

import "context"

// Store is the generic persistence contract every aggregate store satisfies.
type Store[T any] interface {
	Finder[T]
	Count(ctx context.Context, options ...Option) (int64, error)
	Exists(ctx context.Context, options ...Option) (bool, error)
	Save(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, entity T) error
}
