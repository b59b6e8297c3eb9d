// Package seed loads content pages and the site menu from a YAML file.
//
// A seed file looks like:
//
//	pages:
//	  - slug: house-rules
//	    title: House Rules
//	    access: public
//	    published: true
//	    body: |
//	      Be kind to the GM.
//	nav:
//	  - label: Rules
//	    type: page
//	    page: house-rules
//	  - label: Community
//	    type: dropdown
//	    children:
//	      - label: Discord
//	        type: link
//	        url: https://discord.example
//
// Applying a file twice leaves the store unchanged: pages match by slug and
// menu items by label under the same parent.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/internal/domain"
)

// File is a parsed seed file.
type File struct {
	Pages []Page    `yaml:"pages"`
	Nav   []NavItem `yaml:"nav"`
}

// Page is one content page.
type Page struct {
	Slug      string `yaml:"slug"`
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	Access    string `yaml:"access"`
	Published *bool  `yaml:"published"`
}

// NavItem is one menu entry. Page names a page by slug.
type NavItem struct {
	Label         string    `yaml:"label"`
	Type          string    `yaml:"type"`
	URL           string    `yaml:"url"`
	Page          string    `yaml:"page"`
	Position      *int      `yaml:"position"`
	RequiresAuth  bool      `yaml:"requires_auth"`
	RequiresAdmin bool      `yaml:"requires_admin"`
	Active        *bool     `yaml:"active"`
	Children      []NavItem `yaml:"children"`
}

// Load parses a seed file. Unknown keys are an error so typos surface.
func Load(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("%w: parse seed file: %v", domain.ErrValidation, err)
	}
	return f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// PageService is the part of the pages service seeding needs.
type PageService interface {
	Get(ctx context.Context, slug string) (page.Page, error)
	Create(ctx context.Context, params *service.PageParams) (page.Page, error)
	Update(ctx context.Context, slug string, patch *service.PagePatch) (page.Page, error)
}

// NavService is the part of the navigation service seeding needs.
type NavService interface {
	Items(ctx context.Context) ([]nav.Item, error)
	Create(ctx context.Context, params *service.NavItemParams) (nav.Item, error)
	Update(ctx context.Context, id string, params *service.NavItemParams) (nav.Item, error)
}

// Report counts what Apply changed.
type Report struct {
	PagesCreated int
	PagesUpdated int
	NavCreated   int
	NavUpdated   int
}

// Seeder writes seed files through the services, so every row passes the
// same validation as an admin edit.
type Seeder struct {
	pages  PageService
	nav    NavService
	logger *slog.Logger
}

// New creates a Seeder.
func New(pages PageService, navigation NavService, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{pages: pages, nav: navigation, logger: logger}
}

// Apply writes f. ctx must carry an admin session. Pages go first so menu
// items can reference them.
func (s *Seeder) Apply(ctx context.Context, f File) (Report, error) {
	var report Report

	pageIDs := make(map[string]string, len(f.Pages))
	for _, p := range f.Pages {
		saved, created, err := s.applyPage(ctx, p)
		if err != nil {
			return report, err
		}
		pageIDs[saved.Slug()] = saved.ID()
		if created {
			report.PagesCreated++
		} else {
			report.PagesUpdated++
		}
	}

	existing, err := s.nav.Items(ctx)
	if err != nil {
		return report, fmt.Errorf("list nav items: %w", err)
	}
	index := make(map[navKey]string, len(existing))
	for _, item := range existing {
		index[navKey{parentID: item.ParentID(), label: item.Label()}] = item.ID()
	}

	if err := s.applyNav(ctx, f.Nav, "", pageIDs, index, &report); err != nil {
		return report, err
	}

	s.logger.InfoContext(ctx, "seed applied",
		slog.Int("pages_created", report.PagesCreated),
		slog.Int("pages_updated", report.PagesUpdated),
		slog.Int("nav_created", report.NavCreated),
		slog.Int("nav_updated", report.NavUpdated),
	)
	return report, nil
}

func (s *Seeder) applyPage(ctx context.Context, p Page) (page.Page, bool, error) {
	published := true
	if p.Published != nil {
		published = *p.Published
	}

	if p.Slug == "" {
		p.Slug = matching.Slugify(p.Title)
	}
	if p.Slug != "" {
		_, err := s.pages.Get(ctx, p.Slug)
		switch {
		case err == nil:
			patch := &service.PagePatch{Title: &p.Title, Body: &p.Body, Published: &published}
			if p.Access != "" {
				patch.Access = &p.Access
			}
			updated, err := s.pages.Update(ctx, p.Slug, patch)
			if err != nil {
				return page.Page{}, false, fmt.Errorf("update page %s: %w", p.Slug, err)
			}
			return updated, false, nil
		case !errors.Is(err, domain.ErrNotFound):
			return page.Page{}, false, fmt.Errorf("get page %s: %w", p.Slug, err)
		}
	}

	created, err := s.pages.Create(ctx, &service.PageParams{
		Title:     p.Title,
		Slug:      p.Slug,
		Body:      p.Body,
		Access:    p.Access,
		Published: published,
	})
	if err != nil {
		return page.Page{}, false, fmt.Errorf("create page %q: %w", p.Title, err)
	}
	return created, true, nil
}

type navKey struct {
	parentID string
	label    string
}

func (s *Seeder) applyNav(
	ctx context.Context,
	items []NavItem,
	parentID string,
	pageIDs map[string]string,
	index map[navKey]string,
	report *Report,
) error {
	for i, item := range items {
		params := &service.NavItemParams{
			Label:         item.Label,
			Type:          nav.Type(item.Type),
			URL:           item.URL,
			ParentID:      parentID,
			Position:      (i + 1) * 10,
			RequiresAuth:  item.RequiresAuth,
			RequiresAdmin: item.RequiresAdmin,
			Active:        true,
		}
		if params.Type == "" {
			params.Type = nav.TypeLink
			if item.Page != "" {
				params.Type = nav.TypePage
			}
		}
		if item.Position != nil {
			params.Position = *item.Position
		}
		if item.Active != nil {
			params.Active = *item.Active
		}
		if item.Page != "" {
			id, err := s.pageID(ctx, item.Page, pageIDs)
			if err != nil {
				return fmt.Errorf("nav item %q: %w", item.Label, err)
			}
			params.PageID = id
		}

		key := navKey{parentID: parentID, label: item.Label}
		var (
			saved nav.Item
			err   error
		)
		if id, ok := index[key]; ok {
			saved, err = s.nav.Update(ctx, id, params)
			report.NavUpdated++
		} else {
			saved, err = s.nav.Create(ctx, params)
			report.NavCreated++
		}
		if err != nil {
			return fmt.Errorf("save nav item %q: %w", item.Label, err)
		}
		index[key] = saved.ID()

		if err := s.applyNav(ctx, item.Children, saved.ID(), pageIDs, index, report); err != nil {
			return err
		}
	}
	return nil
}

// pageID resolves slug from the file first, then from the store.
func (s *Seeder) pageID(ctx context.Context, slug string, pageIDs map[string]string) (string, error) {
	if id, ok := pageIDs[slug]; ok {
		return id, nil
	}
	p, err := s.pages.Get(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("%w: unknown page %q", domain.ErrValidation, slug)
	}
	if err != nil {
		return "", fmt.Errorf("get page %s: %w", slug, err)
	}
	pageIDs[slug] = p.ID()
	return p.ID(), nil
}
