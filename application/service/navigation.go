package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/google/uuid"
)

// NavItemParams describes a menu row to create or replace.
type NavItemParams struct {
	Label         string
	Type          nav.Type
	URL           string
	PageID        string
	ParentID      string
	Position      int
	RequiresAuth  bool
	RequiresAdmin bool
	Active        bool
}

func (p *NavItemParams) options() []nav.ItemOption {
	return []nav.ItemOption{
		nav.WithURL(p.URL),
		nav.WithPage(p.PageID, ""),
		nav.WithParent(p.ParentID),
		nav.WithPosition(p.Position),
		nav.WithRequiresAuth(p.RequiresAuth),
		nav.WithRequiresAdmin(p.RequiresAdmin),
		nav.WithActive(p.Active),
	}
}

// Navigation builds the menu and manages its rows.
type Navigation struct {
	store  nav.Store
	logger *slog.Logger
}

// NewNavigation creates a Navigation service.
func NewNavigation(items nav.Store, logger *slog.Logger) *Navigation {
	return &Navigation{store: items, logger: loggerOrDefault(logger)}
}

// Tree returns the menu for viewer. A failed fetch is logged and yields an
// empty tree so pages still render.
func (s *Navigation) Tree(ctx context.Context, viewer session.Viewer) nav.Tree {
	rows, err := s.store.FindActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "load navigation", slog.Any("error", err))
		return nav.EmptyTree()
	}
	tree := nav.Build(rows, viewer)
	for _, d := range tree.Dropped() {
		if d.Reason == nav.DropOrphanedParent || d.Reason == nav.DropUnreachable {
			s.logger.DebugContext(ctx, "nav item dropped", slog.String("item_id", d.ItemID), slog.String("reason", string(d.Reason)))
		}
	}
	return tree
}

// Items lists every row, active or not, for admins.
func (s *Navigation) Items(ctx context.Context) ([]nav.Item, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	items, err := s.store.Find(ctx, store.WithOrderAsc("position"))
	if err != nil {
		return nil, fmt.Errorf("list nav items: %w", err)
	}
	return items, nil
}

// Create adds a row.
func (s *Navigation) Create(ctx context.Context, params *NavItemParams) (nav.Item, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return nav.Item{}, err
	}
	item, err := nav.NewItem(uuid.NewString(), params.Label, params.Type, params.options()...)
	if err != nil {
		return nav.Item{}, err
	}
	saved, err := s.store.Save(ctx, item)
	if err != nil {
		return nav.Item{}, fmt.Errorf("save nav item: %w", err)
	}
	return saved, nil
}

// Update replaces a row's fields.
func (s *Navigation) Update(ctx context.Context, id string, params *NavItemParams) (nav.Item, error) {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return nav.Item{}, err
	}
	item, err := s.store.FindOne(ctx, store.WithID(id))
	if err != nil {
		return nav.Item{}, fmt.Errorf("get nav item: %w", err)
	}
	opts := append(params.options(), nav.WithType(params.Type))
	updated, err := item.WithLabel(params.Label).Apply(opts...)
	if err != nil {
		return nav.Item{}, err
	}
	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return nav.Item{}, fmt.Errorf("save nav item: %w", err)
	}
	return saved, nil
}

// Delete removes a row. Its children become orphans and stop rendering.
func (s *Navigation) Delete(ctx context.Context, id string) error {
	if _, err := session.RequireAdmin(ctx); err != nil {
		return err
	}
	item, err := s.store.FindOne(ctx, store.WithID(id))
	if err != nil {
		return fmt.Errorf("get nav item: %w", err)
	}
	if err := s.store.Delete(ctx, item); err != nil {
		return fmt.Errorf("delete nav item: %w", err)
	}
	return nil
}
