package nav

import (
	"context"

	"github.com/emberline/guildhall/domain/store"
)

// Store persists menu rows.
type Store interface {
	store.Store[Item]

	// FindActive returns active rows with their page slugs resolved,
	// ordered by position.
	FindActive(ctx context.Context) ([]Item, error)
}

// WithParentID filters by the "parent_id" column.
func WithParentID(id string) store.Option {
	return store.WithCondition("parent_id", id)
}

// WithPageID filters by the "page_id" column.
func WithPageID(id string) store.Option {
	return store.WithCondition("page_id", id)
}
