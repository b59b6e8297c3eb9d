package store

import "context"

// Finder is the read side of a store.
type Finder[T any] interface {
	Find(ctx context.Context, options ...Option) ([]T, error)
	FindOne(ctx context.Context, options ...Option) (T, error)
}

// Collection is a read-only view of a store, exposing only Find and Get.
type Collection[T any] struct {
	finder Finder[T]
}

// NewCollection wraps a Finder in a read-only Collection.
func NewCollection[T any](finder Finder[T]) Collection[T] {
	return Collection[T]{finder: finder}
}

// Find returns all entities matching the given options.
func (c Collection[T]) Find(ctx context.Context, options ...Option) ([]T, error) {
	return c.finder.Find(ctx, options...)
}

// Get returns a single entity matching the given options.
func (c Collection[T]) Get(ctx context.Context, options ...Option) (T, error) {
	return c.finder.FindOne(ctx, options...)
}
