// Package class provides character classes and their numbered versions.
//
// A class is the public face of an archetype: name, summary and flags.
// Abilities and gear live on versions so a class can be revised without
// losing its history. The highest version is the current one.
package class

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// Class is a character archetype.
type Class struct {
	id        string
	slug      string
	name      string
	summary   string
	teaser    bool
	published bool
	createdBy string
	createdAt time.Time
	updatedAt time.Time
}

// Option configures a Class.
type Option func(*Class)

// WithName sets the name.
func WithName(name string) Option {
	return func(c *Class) { c.name = strings.TrimSpace(name) }
}

// WithSlug sets the slug.
func WithSlug(slug string) Option {
	return func(c *Class) { c.slug = slug }
}

// WithSummary sets the summary.
func WithSummary(s string) Option {
	return func(c *Class) { c.summary = strings.TrimSpace(s) }
}

// WithTeaser marks the class as a teaser.
func WithTeaser(teaser bool) Option {
	return func(c *Class) { c.teaser = teaser }
}

// WithPublished sets whether the class is published.
func WithPublished(published bool) Option {
	return func(c *Class) { c.published = published }
}

// NewClass creates an unpublished class. An empty slug is derived from the name.
func NewClass(id, name, createdBy string, opts ...Option) (Class, error) {
	now := time.Now().UTC()
	c := Class{
		id:        id,
		name:      strings.TrimSpace(name),
		createdBy: createdBy,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.slug == "" {
		c.slug = matching.Slugify(c.name)
	}
	if err := c.validate(); err != nil {
		return Class{}, err
	}
	return c, nil
}

// ReconstructClass recreates a class from persistence.
func ReconstructClass(
	id, slug, name, summary string,
	teaser, published bool,
	createdBy string,
	createdAt, updatedAt time.Time,
) Class {
	return Class{
		id:        id,
		slug:      slug,
		name:      name,
		summary:   summary,
		teaser:    teaser,
		published: published,
		createdBy: createdBy,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c Class) validate() error {
	if c.name == "" {
		return fmt.Errorf("%w: class name is required", domain.ErrValidation)
	}
	if !matching.IsSlug(c.slug) {
		return fmt.Errorf("%w: invalid class slug %q", domain.ErrValidation, c.slug)
	}
	return nil
}

// Apply returns a copy with opts applied.
func (c Class) Apply(opts ...Option) (Class, error) {
	for _, opt := range opts {
		opt(&c)
	}
	c.updatedAt = time.Now().UTC()
	if err := c.validate(); err != nil {
		return Class{}, err
	}
	return c, nil
}

// VisibleTo reports whether v may see the class at all.
func (c Class) VisibleTo(v session.Viewer) bool {
	return c.published || v.Owns(c.createdBy)
}

// GatedFor reports whether v sees only the teaser fields.
func (c Class) GatedFor(v session.Viewer) bool {
	return c.published && c.teaser && !v.IsAdmin()
}

// ID returns the class id.
func (c Class) ID() string { return c.id }

// Slug returns the slug.
func (c Class) Slug() string { return c.slug }

// Name returns the name.
func (c Class) Name() string { return c.name }

// Summary returns the summary.
func (c Class) Summary() string { return c.summary }

// Teaser reports whether only name and summary are public.
func (c Class) Teaser() bool { return c.teaser }

// Published reports whether the class is published.
func (c Class) Published() bool { return c.published }

// CreatedBy returns the creating profile id.
func (c Class) CreatedBy() string { return c.createdBy }

// CreatedAt returns the creation time.
func (c Class) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last update time.
func (c Class) UpdatedAt() time.Time { return c.updatedAt }

// Version is one revision of a class's abilities and gear.
type Version struct {
	id        string
	classID   string
	number    int
	abilities string
	gear      string
	notes     string
	createdAt time.Time
}

// NewVersion creates a class version.
func NewVersion(id, classID string, number int, abilities, gear, notes string) (Version, error) {
	if number < 1 {
		return Version{}, fmt.Errorf("%w: version must be at least 1", domain.ErrValidation)
	}
	return Version{
		id:        id,
		classID:   classID,
		number:    number,
		abilities: abilities,
		gear:      gear,
		notes:     notes,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructVersion recreates a version from persistence.
func ReconstructVersion(id, classID string, number int, abilities, gear, notes string, createdAt time.Time) Version {
	return Version{
		id:        id,
		classID:   classID,
		number:    number,
		abilities: abilities,
		gear:      gear,
		notes:     notes,
		createdAt: createdAt,
	}
}

// ID returns the version id.
func (v Version) ID() string { return v.id }

// ClassID returns the class id.
func (v Version) ClassID() string { return v.classID }

// Number returns the version number.
func (v Version) Number() int { return v.number }

// Abilities returns the abilities text.
func (v Version) Abilities() string { return v.abilities }

// Gear returns the gear text.
func (v Version) Gear() string { return v.gear }

// Notes returns the revision notes.
func (v Version) Notes() string { return v.notes }

// CreatedAt returns the creation time.
func (v Version) CreatedAt() time.Time { return v.createdAt }

// NextNumber returns the number the next version of a class should take.
func NextNumber(versions []Version) int {
	highest := 0
	for _, v := range versions {
		highest = max(highest, v.number)
	}
	return highest + 1
}

// View is a class as one viewer may see it.
type View struct {
	class    Class
	versions []Version
	gated    bool
}

// NewView applies the visibility rules for v. A class the viewer may not see
// is reported as not found.
func NewView(c Class, versions []Version, v session.Viewer) (View, error) {
	if !c.VisibleTo(v) {
		return View{}, fmt.Errorf("%w: class %s", domain.ErrNotFound, c.slug)
	}
	if c.GatedFor(v) {
		return View{class: c, gated: true}, nil
	}
	sorted := slices.Clone(versions)
	slices.SortFunc(sorted, func(a, b Version) int { return b.number - a.number })
	return View{class: c, versions: sorted}, nil
}

// Class returns the class.
func (v View) Class() Class { return v.class }

// Versions returns the visible versions, newest first.
func (v View) Versions() []Version { return slices.Clone(v.versions) }

// Gated reports whether abilities and gear were withheld.
func (v View) Gated() bool { return v.gated }

// Current returns the newest visible version.
func (v View) Current() (Version, bool) {
	if len(v.versions) == 0 {
		return Version{}, false
	}
	return v.versions[0], true
}

// Store persists classes.
type Store interface {
	store.Store[Class]
}

// VersionStore persists class versions.
type VersionStore interface {
	store.Store[Version]
}

// WithPublishedOnly keeps published classes.
func WithPublishedOnly() store.Option {
	return store.WithCondition("is_published", true)
}

// WithClassID filters versions by the "class_id" column.
func WithClassID(id string) store.Option {
	return store.WithCondition("class_id", id)
}

// ByName orders alphabetically.
func ByName() store.Option {
	return store.WithOrderAsc("name")
}
