package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// Identity is what a verified access token says about its holder.
type Identity struct {
	Subject  string
	Email    string
	Username string
}

// Profiles manages community member profiles.
type Profiles struct {
	store.Collection[profile.Profile]
	store  profile.Store
	logger *slog.Logger
}

// NewProfiles creates a Profiles service.
func NewProfiles(profiles profile.Store, logger *slog.Logger) *Profiles {
	return &Profiles{
		Collection: store.NewCollection[profile.Profile](profiles),
		store:      profiles,
		logger:     loggerOrDefault(logger),
	}
}

// EnsureProfile returns the profile for id, creating a player profile the
// first time a user signs in.
func (s *Profiles) EnsureProfile(ctx context.Context, id Identity) (profile.Profile, error) {
	if id.Subject == "" {
		return profile.Profile{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	existing, err := s.store.FindOne(ctx, store.WithID(id.Subject))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	username := usernameFor(id)
	saved, err := s.store.Save(ctx, profile.NewProfile(id.Subject, username, id.Username))
	if errors.Is(err, domain.ErrConflict) {
		username = username + "-" + shortID(id.Subject)
		saved, err = s.store.Save(ctx, profile.NewProfile(id.Subject, username, id.Username))
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile created", slog.String("profile_id", saved.ID()), slog.String("username", saved.Username()))
	return saved, nil
}

func usernameFor(id Identity) string {
	for _, candidate := range []string{id.Username, strings.SplitN(id.Email, "@", 2)[0]} {
		if slug := matching.Slugify(candidate); slug != "" {
			return slug
		}
	}
	return "player-" + shortID(id.Subject)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Me returns the signed-in profile.
func (s *Profiles) Me(ctx context.Context) (profile.Profile, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	return sess.Profile(), nil
}

// UpdateMe changes the signed-in member's display name.
func (s *Profiles) UpdateMe(ctx context.Context, displayName string) (profile.Profile, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return profile.Profile{}, fmt.Errorf("%w: display name is required", domain.ErrValidation)
	}
	current, err := s.store.FindOne(ctx, store.WithID(sess.UserID()))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	saved, err := s.store.Save(ctx, current.WithDisplayName(displayName))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

// SetRole changes another member's role. Admins only.
func (s *Profiles) SetRole(ctx context.Context, id string, role profile.Role) (profile.Profile, error) {
	admin, err := session.RequireAdmin(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	target, err := s.store.FindOne(ctx, store.WithID(id))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	saved, err := s.store.Save(ctx, target.WithRole(role))
	if err != nil {
		return profile.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "role changed",
		slog.String("profile_id", id),
		slog.String("role", string(role)),
		slog.String("by", admin.UserID()),
	)
	return saved, nil
}

// DisplayNames looks up display names for ids. Lookup failures are logged
// and give an empty map.
func (s *Profiles) DisplayNames(ctx context.Context, ids ...string) map[string]string {
	names := make(map[string]string, len(ids))
	wanted := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			wanted = append(wanted, id)
		}
	}
	if len(wanted) == 0 {
		return names
	}
	profiles, err := s.store.Find(ctx, store.WithIDIn(wanted))
	if err != nil {
		s.logger.WarnContext(ctx, "load display names", slog.String("error", err.Error()))
		return names
	}
	for _, p := range profiles {
		names[p.ID()] = p.DisplayName()
	}
	return names
}
