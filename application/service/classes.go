package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/google/uuid"
)

// ClassParams describes a new class. A first version is created when any
// of Abilities, Gear or Notes is set.
type ClassParams struct {
	Name      string
	Slug      string
	Summary   string
	Teaser    bool
	Published bool
	Abilities string
	Gear      string
	Notes     string
}

// ClassPatch lists the class fields to change.
type ClassPatch struct {
	Name      *string
	Summary   *string
	Teaser    *bool
	Published *bool
}

// VersionParams describes a new class version.
type VersionParams struct {
	Abilities string
	Gear      string
	Notes     string
}

// Classes manages character classes and their versions.
type Classes struct {
	store    class.Store
	versions class.VersionStore
	logger   *slog.Logger
}

// NewClasses creates a Classes service.
func NewClasses(classes class.Store, versions class.VersionStore, logger *slog.Logger) *Classes {
	return &Classes{store: classes, versions: versions, logger: loggerOrDefault(logger)}
}

// List returns the classes the viewer may see, by name.
func (s *Classes) List(ctx context.Context) ([]class.Class, error) {
	opts := []store.Option{class.ByName()}
	if !session.FromContext(ctx).Viewer().IsAdmin() {
		opts = append(opts, class.WithPublishedOnly())
	}
	classes, err := s.store.Find(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// Get returns the viewer's view of a class, with teaser gating applied.
func (s *Classes) Get(ctx context.Context, slug string) (class.View, error) {
	c, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return class.View{}, fmt.Errorf("get class: %w", err)
	}
	versions, err := s.versions.Find(ctx, class.WithClassID(c.ID()))
	if err != nil {
		return class.View{}, fmt.Errorf("list class versions: %w", err)
	}
	return class.NewView(c, versions, session.FromContext(ctx).Viewer())
}

// Create adds a class. Admins only.
func (s *Classes) Create(ctx context.Context, params *ClassParams) (class.View, error) {
	sess, err := session.RequireAdmin(ctx)
	if err != nil {
		return class.View{}, err
	}
	c, err := class.NewClass(uuid.NewString(), params.Name, sess.UserID(),
		class.WithSlug(params.Slug),
		class.WithSummary(params.Summary),
		class.WithTeaser(params.Teaser),
		class.WithPublished(params.Published),
	)
	if err != nil {
		return class.View{}, err
	}
	saved, err := s.store.Save(ctx, c)
	if err != nil {
		return class.View{}, fmt.Errorf("save class: %w", err)
	}
	var versions []class.Version
	if params.Abilities != "" || params.Gear != "" || params.Notes != "" {
		v, err := s.saveVersion(ctx, saved, nil, &VersionParams{Abilities: params.Abilities, Gear: params.Gear, Notes: params.Notes})
		if err != nil {
			return class.View{}, err
		}
		versions = append(versions, v)
	}
	return class.NewView(saved, versions, sess.Viewer())
}

// Update changes a class. Admins only.
func (s *Classes) Update(ctx context.Context, slug string, patch *ClassPatch) (class.Class, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return class.Class{}, err
	}
	c, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return class.Class{}, fmt.Errorf("get class: %w", err)
	}
	var opts []class.Option
	if patch.Name != nil {
		opts = append(opts, class.WithName(*patch.Name))
	}
	if patch.Summary != nil {
		opts = append(opts, class.WithSummary(*patch.Summary))
	}
	if patch.Teaser != nil {
		opts = append(opts, class.WithTeaser(*patch.Teaser))
	}
	if patch.Published != nil {
		opts = append(opts, class.WithPublished(*patch.Published))
	}
	updated, err := c.Apply(opts...)
	if err != nil {
		return class.Class{}, err
	}
	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return class.Class{}, fmt.Errorf("save class: %w", err)
	}
	return saved, nil
}

// AddVersion appends the next numbered version. Admins only.
func (s *Classes) AddVersion(ctx context.Context, slug string, params *VersionParams) (class.Version, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return class.Version{}, err
	}
	c, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return class.Version{}, fmt.Errorf("get class: %w", err)
	}
	existing, err := s.versions.Find(ctx, class.WithClassID(c.ID()))
	if err != nil {
		return class.Version{}, fmt.Errorf("list class versions: %w", err)
	}
	return s.saveVersion(ctx, c, existing, params)
}

func (s *Classes) saveVersion(ctx context.Context, c class.Class, existing []class.Version, params *VersionParams) (class.Version, error) {
	v, err := class.NewVersion(uuid.NewString(), c.ID(), class.NextNumber(existing), params.Abilities, params.Gear, params.Notes)
	if err != nil {
		return class.Version{}, err
	}
	saved, err := s.versions.Save(ctx, v)
	if err != nil {
		return class.Version{}, fmt.Errorf("save class version: %w", err)
	}
	s.logger.InfoContext(ctx, "class version added", slog.String("class", c.Slug()), slog.Int("version", saved.Number()))
	return saved, nil
}

// Delete removes a class and its versions. Admins only.
func (s *Classes) Delete(ctx context.Context, slug string) error {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return err
	}
	c, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return fmt.Errorf("get class: %w", err)
	}
	if err := s.store.Delete(ctx, c); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
