package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/google/uuid"
)

// PageParams describes a new page.
type PageParams struct {
	Title     string
	Slug      string
	Body      string
	Access    string
	Published bool
}

// PagePatch lists the page fields to change.
type PagePatch struct {
	Title     *string
	Body      *string
	Access    *string
	Published *bool
}

// Pages manages static content pages.
type Pages struct {
	store  page.Store
	logger *slog.Logger
}

// NewPages creates a Pages service.
func NewPages(pages page.Store, logger *slog.Logger) *Pages {
	return &Pages{store: pages, logger: loggerOrDefault(logger)}
}

// List returns the pages the viewer may read, by title.
func (s *Pages) List(ctx context.Context) ([]page.Page, error) {
	viewer := session.FromContext(ctx).Viewer()
	opts := []store.Option{page.ByTitle()}
	if !viewer.IsAdmin() {
		opts = append(opts, page.WithPublishedOnly())
	}
	pages, err := s.store.Find(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	visible := pages[:0]
	for _, p := range pages {
		if p.VisibleTo(viewer) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Get returns a page the viewer may read. Anonymous viewers get not found
// for restricted pages; members get forbidden.
func (s *Pages) Get(ctx context.Context, slug string) (page.Page, error) {
	p, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return page.Page{}, fmt.Errorf("get page: %w", err)
	}
	if err := p.CheckAccess(session.FromContext(ctx).Viewer()); err != nil {
		return page.Page{}, err
	}
	return p, nil
}

// Create adds a page. Admins only.
func (s *Pages) Create(ctx context.Context, params *PageParams) (page.Page, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return page.Page{}, err
	}
	access, err := page.ParseAccess(params.Access)
	if err != nil {
		return page.Page{}, err
	}
	p, err := page.NewPage(uuid.NewString(), params.Title,
		page.WithSlug(params.Slug),
		page.WithBody(params.Body),
		page.WithAccess(access),
		page.WithPublished(params.Published),
	)
	if err != nil {
		return page.Page{}, err
	}
	saved, err := s.store.Save(ctx, p)
	if err != nil {
		return page.Page{}, fmt.Errorf("save page: %w", err)
	}
	return saved, nil
}

// Update changes a page. Admins only.
func (s *Pages) Update(ctx context.Context, slug string, patch *PagePatch) (page.Page, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return page.Page{}, err
	}
	p, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return page.Page{}, fmt.Errorf("get page: %w", err)
	}
	var opts []page.Option
	if patch.Title != nil {
		opts = append(opts, page.WithTitle(*patch.Title))
	}
	if patch.Body != nil {
		opts = append(opts, page.WithBody(*patch.Body))
	}
	if patch.Access != nil {
		access, err := page.ParseAccess(*patch.Access)
		if err != nil {
			return page.Page{}, err
		}
		opts = append(opts, page.WithAccess(access))
	}
	if patch.Published != nil {
		opts = append(opts, page.WithPublished(*patch.Published))
	}
	updated, err := p.Apply(opts...)
	if err != nil {
		return page.Page{}, err
	}
	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return page.Page{}, fmt.Errorf("save page: %w", err)
	}
	return saved, nil
}

// Delete removes a page. Admins only. Menu rows linking to it render as
// placeholders until edited.
func (s *Pages) Delete(ctx context.Context, slug string) error {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return err
	}
	p, err := s.store.FindOne(ctx, store.WithSlug(slug))
	if err != nil {
		return fmt.Errorf("get page: %w", err)
	}
	if err := s.store.Delete(ctx, p); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
