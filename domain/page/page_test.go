package page

import (
	"testing"

	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAccess(t *testing.T) {
	anon := session.Viewer{}
	member := session.Viewer{UserID: "u1", Role: profile.RolePlayer}
	admin := session.Viewer{UserID: "a1", Role: profile.RoleAdmin}

	tests := []struct {
		name      string
		access    Access
		published bool
		viewer    session.Viewer
		want      error
	}{
		{"public to anonymous", AccessPublic, true, anon, nil},
		{"members to anonymous", AccessMembers, true, anon, domain.ErrNotFound},
		{"members to member", AccessMembers, true, member, nil},
		{"admin to member", AccessAdmin, true, member, domain.ErrForbidden},
		{"admin to anonymous", AccessAdmin, true, anon, domain.ErrNotFound},
		{"admin to admin", AccessAdmin, true, admin, nil},
		{"unpublished to member", AccessPublic, false, member, domain.ErrNotFound},
		{"unpublished admin page to member", AccessAdmin, false, member, domain.ErrNotFound},
		{"unpublished to anonymous", AccessPublic, false, anon, domain.ErrNotFound},
		{"unpublished to admin", AccessMembers, false, admin, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPage("p1", "House Rules", WithAccess(tt.access), WithPublished(tt.published))
			require.NoError(t, err)

			err = p.CheckAccess(tt.viewer)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewPage(t *testing.T) {
	p, err := NewPage("p1", "House Rules")
	require.NoError(t, err)
	assert.Equal(t, "house-rules", p.Slug())
	assert.Equal(t, AccessPublic, p.Access())

	_, err = NewPage("p1", "House Rules", WithAccess("secret"))
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewPage("p1", "")
	require.ErrorIs(t, err, domain.ErrValidation)
}
