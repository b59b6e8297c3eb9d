package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/internal/domain"
)

type brokenNav struct {
	nav.Store
}

func (brokenNav) FindActive(context.Context) ([]nav.Item, error) {
	return nil, errors.New("database is locked")
}

func TestNavigation_TreeFailureGivesEmptyTree(t *testing.T) {
	svc := service.NewNavigation(brokenNav{}, nil)
	tree := svc.Tree(context.Background(), session.Viewer{})
	assert.True(t, tree.Empty())
}

func TestNavigation_CreateAndTree(t *testing.T) {
	f := newFixture(t)
	admin := f.member(t, "admin", profile.RoleAdmin)
	player := f.member(t, "p1", profile.RolePlayer)
	svc := service.NewNavigation(f.nav, nil)

	menu, err := svc.Create(admin, &service.NavItemParams{Label: "Guild", Type: nav.TypeDropdown, Active: true})
	require.NoError(t, err)
	_, err = svc.Create(admin, &service.NavItemParams{
		Label: "Missions", Type: nav.TypeLink, URL: "/missions", ParentID: menu.ID(), Position: 2, Active: true,
	})
	require.NoError(t, err)
	_, err = svc.Create(admin, &service.NavItemParams{
		Label: "Admin", Type: nav.TypeLink, URL: "/admin", ParentID: menu.ID(), Position: 1, RequiresAdmin: true, Active: true,
	})
	require.NoError(t, err)

	t.Run("player sees public children", func(t *testing.T) {
		tree := svc.Tree(player, session.FromContext(player).Viewer())
		require.Len(t, tree.Roots(), 1)
		children := tree.Roots()[0].Children
		require.Len(t, children, 1)
		assert.Equal(t, "/missions", children[0].Href)
		assert.False(t, tree.Roots()[0].Navigable())
	})

	t.Run("admin sees everything in order", func(t *testing.T) {
		tree := svc.Tree(admin, session.FromContext(admin).Viewer())
		children := tree.Roots()[0].Children
		require.Len(t, children, 2)
		assert.Equal(t, "Admin", children[0].Item.Label())
	})

	t.Run("writes are admin only", func(t *testing.T) {
		_, err := svc.Create(player, &service.NavItemParams{Label: "X", Type: nav.TypeLink, URL: "/x"})
		require.ErrorIs(t, err, domain.ErrForbidden)
		_, err = svc.Items(context.Background())
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})

	t.Run("update replaces fields", func(t *testing.T) {
		updated, err := svc.Update(admin, menu.ID(), &service.NavItemParams{Label: "Home", Type: nav.TypeLink, URL: "/", Active: true})
		require.NoError(t, err)
		assert.Equal(t, "Home", updated.Label())
		assert.Equal(t, nav.TypeLink, updated.Type())
	})

	t.Run("deleting a parent hides its children", func(t *testing.T) {
		require.NoError(t, svc.Delete(admin, menu.ID()))
		tree := svc.Tree(admin, session.FromContext(admin).Viewer())
		assert.True(t, tree.Empty())
		assert.Len(t, tree.Dropped(), 2)
	})
}
