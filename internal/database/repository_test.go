package database

import (
	"context"
	"testing"

	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type heroModel struct {
	ID    string `gorm:"primaryKey"`
	Name  string
	Level int
}

func (heroModel) TableName() string { return "heroes" }

type hero struct {
	name  string
	level int
}

type heroMapper struct{}

func (heroMapper) ToDomain(m heroModel) hero { return hero{name: m.Name, level: m.Level} }
func (heroMapper) ToModel(h hero) heroModel  { return heroModel{Name: h.name, Level: h.level} }

func seededRepo(t *testing.T) Repository[hero, heroModel] {
	t.Helper()
	db, _ := openFile(t)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.GORM().AutoMigrate(&heroModel{}))
	rows := []heroModel{
		{ID: "1", Name: "Ysolde", Level: 3},
		{ID: "2", Name: "Bram", Level: 1},
		{ID: "3", Name: "Yorick", Level: 5},
	}
	require.NoError(t, db.Session(ctx).Create(&rows).Error)
	return NewRepository[hero, heroModel](db, heroMapper{}, "hero")
}

func TestRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	all, err := repo.Find(ctx, store.WithOrderDesc("level"))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Yorick", all[0].name)

	in, err := repo.Find(ctx, store.WithIDIn([]string{"1", "2"}), store.WithOrderAsc("name"))
	require.NoError(t, err)
	require.Len(t, in, 2)
	assert.Equal(t, "Bram", in[0].name)

	contains, err := repo.Find(ctx, store.WithContains("name", "y"), store.WithOrderAsc("name"))
	require.NoError(t, err)
	require.Len(t, contains, 2)
	assert.Equal(t, "Yorick", contains[0].name)
	assert.Equal(t, "Ysolde", contains[1].name)

	raw, err := repo.Find(ctx, store.WithWhere("level >= ?", 3), store.WithLimit(1), store.WithOrderAsc("level"))
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "Ysolde", raw[0].name)
}

func TestRepository_FindOneCountDelete(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	h, err := repo.FindOne(ctx, store.WithID("2"))
	require.NoError(t, err)
	assert.Equal(t, "Bram", h.name)

	_, err = repo.FindOne(ctx, store.WithID("missing"))
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	n, err := repo.Count(ctx, store.WithWhere("level > ?", 1), store.WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.DeleteBy(ctx, store.WithID("1")))
	ok, err := repo.Exists(ctx, store.WithID("1"))
	require.NoError(t, err)
	assert.False(t, ok)
}
