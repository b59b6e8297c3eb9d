// Package page provides static content pages with access levels.
package page

import (
	"fmt"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
)

// Access is who may read a page.
type Access string

// Access values.
const (
	AccessPublic  Access = "public"
	AccessMembers Access = "members"
	AccessAdmin   Access = "admin"
)

// ParseAccess validates an access level. Empty means public.
func ParseAccess(s string) (Access, error) {
	switch Access(s) {
	case "", AccessPublic:
		return AccessPublic, nil
	case AccessMembers, AccessAdmin:
		return Access(s), nil
	default:
		return "", fmt.Errorf("%w: unknown access level %q", domain.ErrValidation, s)
	}
}

// Page is a Markdown content page.
type Page struct {
	id        string
	slug      string
	title     string
	body      string
	access    Access
	published bool
	createdAt time.Time
	updatedAt time.Time
}

// Option configures a Page.
type Option func(*Page)

// WithTitle sets the title.
func WithTitle(title string) Option {
	return func(p *Page) { p.title = strings.TrimSpace(title) }
}

// WithSlug sets the slug.
func WithSlug(slug string) Option {
	return func(p *Page) { p.slug = slug }
}

// WithBody sets the Markdown body.
func WithBody(body string) Option {
	return func(p *Page) { p.body = body }
}

// WithAccess sets the access level.
func WithAccess(a Access) Option {
	return func(p *Page) { p.access = a }
}

// WithPublished sets whether the page is published.
func WithPublished(published bool) Option {
	return func(p *Page) { p.published = published }
}

// NewPage creates an unpublished public page. An empty slug is derived from the title.
func NewPage(id, title string, opts ...Option) (Page, error) {
	now := time.Now().UTC()
	p := Page{
		id:        id,
		title:     strings.TrimSpace(title),
		access:    AccessPublic,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.slug == "" {
		p.slug = matching.Slugify(p.title)
	}
	if err := p.validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// ReconstructPage recreates a page from persistence.
func ReconstructPage(id, slug, title, body string, access Access, published bool, createdAt, updatedAt time.Time) Page {
	return Page{
		id:        id,
		slug:      slug,
		title:     title,
		body:      body,
		access:    access,
		published: published,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p Page) validate() error {
	if p.title == "" {
		return fmt.Errorf("%w: page title is required", domain.ErrValidation)
	}
	if !matching.IsSlug(p.slug) {
		return fmt.Errorf("%w: invalid page slug %q", domain.ErrValidation, p.slug)
	}
	if _, err := ParseAccess(string(p.access)); err != nil {
		return err
	}
	return nil
}

// Apply returns a copy with opts applied.
func (p Page) Apply(opts ...Option) (Page, error) {
	for _, opt := range opts {
		opt(&p)
	}
	p.updatedAt = time.Now().UTC()
	if err := p.validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// CheckAccess returns nil when v may read the page. Drafts and pages hidden
// from anonymous viewers give ErrNotFound so their slugs are not revealed.
// Signed-in viewers below a published page's access level get ErrForbidden.
func (p Page) CheckAccess(v session.Viewer) error {
	if p.VisibleTo(v) {
		return nil
	}
	if !p.published || !v.Authenticated() {
		return fmt.Errorf("%w: page %s", domain.ErrNotFound, p.slug)
	}
	return fmt.Errorf("%w: page %s", domain.ErrForbidden, p.slug)
}

// VisibleTo reports whether v may read the page.
func (p Page) VisibleTo(v session.Viewer) bool {
	if v.IsAdmin() {
		return true
	}
	if !p.published {
		return false
	}
	switch p.access {
	case AccessPublic:
		return true
	case AccessMembers:
		return v.Authenticated()
	default:
		return false
	}
}

// ID returns the page id.
func (p Page) ID() string { return p.id }

// Slug returns the slug.
func (p Page) Slug() string { return p.slug }

// Title returns the title.
func (p Page) Title() string { return p.title }

// Body returns the Markdown body.
func (p Page) Body() string { return p.body }

// Access returns the access level.
func (p Page) Access() Access { return p.access }

// Published reports whether the page is published.
func (p Page) Published() bool { return p.published }

// CreatedAt returns the creation time.
func (p Page) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last update time.
func (p Page) UpdatedAt() time.Time { return p.updatedAt }

// Store persists pages.
type Store interface {
	store.Store[Page]
}

// WithPublishedOnly keeps published pages.
func WithPublishedOnly() store.Option {
	return store.WithCondition("is_published", true)
}

// ByTitle orders alphabetically by title.
func ByTitle() store.Option {
	return store.WithOrderAsc("title")
}
