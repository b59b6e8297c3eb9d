package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emberline/guildhall/internal/domain"
)

func withTable(t *testing.T) Database {
	t.Helper()
	db, _ := openFile(t)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Session(context.Background()).Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)").Error)
	return db
}

func countItems(t *testing.T, db Database) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Session(context.Background()).Raw("SELECT COUNT(*) FROM items").Scan(&n).Error)
	return n
}

func insert(tx *gorm.DB, name string) error {
	return tx.Exec("INSERT INTO items (name) VALUES (?)", name).Error
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := withTable(t)

	require.NoError(t, WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return insert(tx, "a")
	}))
	assert.Equal(t, int64(1), countItems(t, db))

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := insert(tx, "b"); err != nil {
			return err
		}
		return domain.ErrConflict
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(1), countItems(t, db))
}

func TestWithTransaction_NestedRollsBackInnerOnly(t *testing.T) {
	ctx := context.Background()
	db := withTable(t)
	inner := errors.New("inner")

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := insert(tx, "outer"); err != nil {
			return err
		}
		nestedErr := tx.Transaction(func(tx *gorm.DB) error {
			if err := insert(tx, "inner"); err != nil {
				return err
			}
			return inner
		})
		assert.ErrorIs(t, nestedErr, inner)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countItems(t, db))
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	db := withTable(t)

	n, err := Tx(ctx, db, func(tx *gorm.DB) (int64, error) {
		if err := insert(tx, "a"); err != nil {
			return 0, err
		}
		var n int64
		err := tx.Raw("SELECT COUNT(*) FROM items").Scan(&n).Error
		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = Tx(ctx, db, func(tx *gorm.DB) (int64, error) {
		if err := insert(tx, "b"); err != nil {
			return 0, err
		}
		return 2, errors.New("boom")
	})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), countItems(t, db))
}
