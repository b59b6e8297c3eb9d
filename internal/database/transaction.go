package database

import (
	"context"

	"gorm.io/gorm"
)

// WithTransaction runs fn in one transaction and commits when fn returns nil.
// fn's error is returned as is so callers can still match domain sentinels.
// Calling WithTransaction with a tx obtained inside fn nests as a savepoint.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	return db.Session(ctx).Transaction(fn)
}

// Tx runs fn in a transaction and returns its value only when the commit
// succeeds.
func Tx[T any](ctx context.Context, db Database, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var out T
	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
