// Package session carries the authenticated identity of a single request.
//
// A Session is attached to the request context by the auth middleware and
// read back by services. Nothing about the current user is stored outside
// the context.
package session

import (
	"context"
	"fmt"

	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/internal/domain"
)

// Viewer is the minimal identity used by visibility rules.
// A zero Viewer is an anonymous visitor.
type Viewer struct {
	UserID string
	Role   profile.Role
}

// Authenticated reports whether the viewer has a user id.
func (v Viewer) Authenticated() bool { return v.UserID != "" }

// IsAdmin reports whether the viewer holds the admin role.
func (v Viewer) IsAdmin() bool { return v.Role.IsAdmin() }

// Owns reports whether the viewer is the given owner, or an admin.
func (v Viewer) Owns(ownerID string) bool {
	return v.IsAdmin() || (v.Authenticated() && v.UserID == ownerID)
}

// Session is the identity resolved for one request.
type Session struct {
	token   string
	profile profile.Profile
	ok      bool
}

// New creates an authenticated session.
func New(token string, p profile.Profile) Session {
	return Session{token: token, profile: p, ok: true}
}

// Anonymous returns a session with no identity.
func Anonymous() Session {
	return Session{}
}

// Authenticated reports whether the session has a profile.
func (s Session) Authenticated() bool { return s.ok }

// Profile returns the session profile.
func (s Session) Profile() profile.Profile { return s.profile }

// UserID returns the profile id, or empty when anonymous.
func (s Session) UserID() string {
	if !s.ok {
		return ""
	}
	return s.profile.ID()
}

// Token returns the bearer token the session was built from.
func (s Session) Token() string { return s.token }

// Viewer returns the visibility identity of the session.
func (s Session) Viewer() Viewer {
	if !s.ok {
		return Viewer{}
	}
	return Viewer{UserID: s.profile.ID(), Role: s.profile.Role()}
}

type contextKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session on ctx, or an anonymous session.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(contextKey{}).(Session); ok {
		return s
	}
	return Anonymous()
}

// Require returns the authenticated session on ctx.
func Require(ctx context.Context) (Session, error) {
	s := FromContext(ctx)
	if !s.Authenticated() {
		return Session{}, domain.ErrUnauthenticated
	}
	return s, nil
}

// RequireAdmin returns the session on ctx when it belongs to an admin.
func RequireAdmin(ctx context.Context) (Session, error) {
	s, err := Require(ctx)
	if err != nil {
		return Session{}, err
	}
	if !s.Viewer().IsAdmin() {
		return Session{}, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return s, nil
}
