// Package nav models the database-backed navigation menu and builds the
// per-viewer menu tree.
package nav

import (
	"fmt"
	"strings"
	"time"

	"github.com/emberline/guildhall/internal/domain"
)

// Type selects how a menu entry resolves its link.
type Type string

// Type values. Rows may carry other values; they render as placeholders.
const (
	TypeLink     Type = "link"
	TypePage     Type = "page"
	TypeDropdown Type = "dropdown"
)

// Item is one persisted menu row.
type Item struct {
	id            string
	label         string
	typ           Type
	url           string
	pageID        string
	pageSlug      string
	parentID      string
	position      int
	requiresAuth  bool
	requiresAdmin bool
	active        bool
	createdAt     time.Time
	updatedAt     time.Time
}

// ItemOption configures an Item.
type ItemOption func(*Item)

// WithURL sets the target of a link item.
func WithURL(url string) ItemOption {
	return func(i *Item) { i.url = strings.TrimSpace(url) }
}

// WithPage links the item to a page.
func WithPage(pageID, pageSlug string) ItemOption {
	return func(i *Item) {
		i.pageID = pageID
		i.pageSlug = pageSlug
	}
}

// WithParent nests the item under another item.
func WithParent(parentID string) ItemOption {
	return func(i *Item) { i.parentID = parentID }
}

// WithPosition sets the sort position among siblings.
func WithPosition(position int) ItemOption {
	return func(i *Item) { i.position = position }
}

// WithRequiresAuth hides the item from anonymous visitors.
func WithRequiresAuth(v bool) ItemOption {
	return func(i *Item) { i.requiresAuth = v }
}

// WithRequiresAdmin hides the item from non-admins.
func WithRequiresAdmin(v bool) ItemOption {
	return func(i *Item) { i.requiresAdmin = v }
}

// WithActive toggles whether the item is shown at all.
func WithActive(v bool) ItemOption {
	return func(i *Item) { i.active = v }
}

// WithType changes how the item resolves its link.
func WithType(t Type) ItemOption {
	return func(i *Item) { i.typ = t }
}

// NewItem creates a new, active menu item.
func NewItem(id, label string, typ Type, opts ...ItemOption) (Item, error) {
	now := time.Now().UTC()
	item := Item{
		id:        id,
		label:     strings.TrimSpace(label),
		typ:       typ,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range opts {
		opt(&item)
	}
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// ReconstructItem recreates an item from persistence.
func ReconstructItem(
	id, label string,
	typ Type,
	url, pageID, pageSlug, parentID string,
	position int,
	requiresAuth, requiresAdmin, active bool,
	createdAt, updatedAt time.Time,
) Item {
	return Item{
		id:            id,
		label:         label,
		typ:           typ,
		url:           url,
		pageID:        pageID,
		pageSlug:      pageSlug,
		parentID:      parentID,
		position:      position,
		requiresAuth:  requiresAuth,
		requiresAdmin: requiresAdmin,
		active:        active,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// Validate checks the fields an admin must supply.
func (i Item) Validate() error {
	if i.label == "" {
		return fmt.Errorf("%w: nav item label is required", domain.ErrValidation)
	}
	if i.parentID != "" && i.parentID == i.id {
		return fmt.Errorf("%w: nav item cannot be its own parent", domain.ErrValidation)
	}
	switch i.typ {
	case TypeLink:
		if i.url == "" {
			return fmt.Errorf("%w: link item needs a url", domain.ErrValidation)
		}
	case TypePage:
		if i.pageID == "" {
			return fmt.Errorf("%w: page item needs a page", domain.ErrValidation)
		}
	case TypeDropdown:
	default:
		return fmt.Errorf("%w: unknown nav item type %q", domain.ErrValidation, i.typ)
	}
	return nil
}

// Apply returns a copy with the options applied and the update time bumped.
func (i Item) Apply(opts ...ItemOption) (Item, error) {
	for _, opt := range opts {
		opt(&i)
	}
	i.updatedAt = time.Now().UTC()
	if err := i.Validate(); err != nil {
		return Item{}, err
	}
	return i, nil
}

// WithLabel returns a copy with a new label.
func (i Item) WithLabel(label string) Item {
	i.label = strings.TrimSpace(label)
	return i
}

// ID returns the item id.
func (i Item) ID() string { return i.id }

// Label returns the display text.
func (i Item) Label() string { return i.label }

// Type returns the item type.
func (i Item) Type() Type { return i.typ }

// URL returns the stored url of a link item.
func (i Item) URL() string { return i.url }

// PageID returns the linked page id.
func (i Item) PageID() string { return i.pageID }

// PageSlug returns the resolved slug of the linked page.
func (i Item) PageSlug() string { return i.pageSlug }

// ParentID returns the parent item id, or empty for a root.
func (i Item) ParentID() string { return i.parentID }

// Position returns the sort position among siblings.
func (i Item) Position() int { return i.position }

// RequiresAuth reports whether anonymous visitors are excluded.
func (i Item) RequiresAuth() bool { return i.requiresAuth }

// RequiresAdmin reports whether non-admins are excluded.
func (i Item) RequiresAdmin() bool { return i.requiresAdmin }

// Active reports whether the item is enabled.
func (i Item) Active() bool { return i.active }

// CreatedAt returns the creation time.
func (i Item) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns the last update time.
func (i Item) UpdatedAt() time.Time { return i.updatedAt }
