// Package profile provides the community member account type.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// Role is a member's permission level.
type Role string

// Role values.
const (
	RolePlayer Role = "player"
	RoleGM     Role = "gm"
	RoleAdmin  Role = "admin"
)

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePlayer:
		return RolePlayer, nil
	case RoleGM:
		return RoleGM, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrValidation, s)
	}
}

// IsAdmin reports whether the role is admin.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// CanRunGames reports whether the role may act as game master.
func (r Role) CanRunGames() bool { return r == RoleGM || r == RoleAdmin }

// Profile is a community member. Its ID is the user id issued by the auth backend.
type Profile struct {
	id          string
	username    string
	displayName string
	role        Role
	createdAt   time.Time
	updatedAt   time.Time
}

// NewProfile creates a player profile for a freshly authenticated user.
func NewProfile(id, username, displayName string) Profile {
	now := time.Now().UTC()
	if displayName == "" {
		displayName = username
	}
	return Profile{
		id:          id,
		username:    username,
		displayName: displayName,
		role:        RolePlayer,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ReconstructProfile recreates a profile from persistence.
func ReconstructProfile(id, username, displayName string, role Role, createdAt, updatedAt time.Time) Profile {
	return Profile{
		id:          id,
		username:    username,
		displayName: displayName,
		role:        role,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the profile id.
func (p Profile) ID() string { return p.id }

// Username returns the unique handle.
func (p Profile) Username() string { return p.username }

// DisplayName returns the name shown to other members.
func (p Profile) DisplayName() string { return p.displayName }

// Role returns the permission level.
func (p Profile) Role() Role { return p.role }

// CreatedAt returns the creation time.
func (p Profile) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last update time.
func (p Profile) UpdatedAt() time.Time { return p.updatedAt }

// WithDisplayName returns a copy with a new display name.
func (p Profile) WithDisplayName(name string) Profile {
	p.displayName = name
	p.updatedAt = time.Now().UTC()
	return p
}

// WithRole returns a copy with a new role.
func (p Profile) WithRole(role Role) Profile {
	p.role = role
	p.updatedAt = time.Now().UTC()
	return p
}

// Store persists profiles.
type Store interface {
	store.Store[Profile]
}

// WithUsername filters by the "username" column.
func WithUsername(username string) store.Option {
	return store.WithCondition("username", username)
}
