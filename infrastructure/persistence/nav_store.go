package persistence

import (
	"context"
	"fmt"

	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/internal/database"
)

// NavItemStore implements nav.Store.
type NavItemStore struct {
	entityStore[nav.Item, NavItemModel]
}

// NewNavItemStore creates a NavItemStore.
func NewNavItemStore(db database.Database) NavItemStore {
	return NavItemStore{newEntityStore[nav.Item, NavItemModel](db, NavItemMapper{}, "nav item")}
}

type navItemRow struct {
	NavItemModel `gorm:"embedded"`
	PageSlug     *string `gorm:"column:page_slug"`
}

// FindActive returns active rows ordered by position, with the slug of a
// linked page resolved. A page that no longer exists leaves the slug empty.
func (s NavItemStore) FindActive(ctx context.Context) ([]nav.Item, error) {
	var rows []navItemRow
	err := s.DB(ctx).
		Table("nav_items").
		Select("nav_items.*, pages.slug AS page_slug").
		Joins("LEFT JOIN pages ON pages.id = nav_items.page_id").
		Where("nav_items.is_active = ?", true).
		Order("nav_items.position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find active nav items: %w", err)
	}
	items := make([]nav.Item, len(rows))
	for i, r := range rows {
		items[i] = navItemFromRow(r.NavItemModel, deref(r.PageSlug))
	}
	return items, nil
}

var _ nav.Store = NavItemStore{}
