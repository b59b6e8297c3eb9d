package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/lfg"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/internal/domain"
)

func TestLFG_Lifecycle(t *testing.T) {
	f := newFixture(t)
	author := f.member(t, "u1", profile.RolePlayer)
	other := f.member(t, "u2", profile.RolePlayer)
	svc := service.NewLFG(f.posts, nil)

	soon := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	later := soon.Add(24 * time.Hour)

	second, err := svc.Create(author, &service.PostParams{Title: "Later", StartsAt: later})
	require.NoError(t, err)
	first, err := svc.Create(other, &service.PostParams{Title: "Sooner", StartsAt: soon, Seats: 3, DurationMinutes: 120})
	require.NoError(t, err)
	assert.Equal(t, lfg.DefaultDuration, second.DurationMinutes())
	_, err = svc.Create(context.Background(), &service.PostParams{Title: "Anon", StartsAt: soon})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	open, err := svc.Open(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, first.ID(), open[0].ID())

	seats := 6
	_, err = svc.Update(other, second.ID(), &service.PostPatch{Seats: &seats})
	require.ErrorIs(t, err, domain.ErrForbidden)
	updated, err := svc.Update(author, second.ID(), &service.PostPatch{Seats: &seats})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Seats())

	closed, err := svc.Close(author, second.ID())
	require.NoError(t, err)
	assert.False(t, closed.Open())

	open, err = svc.Open(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID(), open[0].ID())

	require.NoError(t, svc.Delete(other, first.ID()))
	_, err = svc.Get(context.Background(), first.ID())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
