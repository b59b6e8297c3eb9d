package nav

import (
	"cmp"
	"net/url"
	"slices"

	"github.com/emberline/guildhall/domain/session"
)

// PlaceholderHref is the empty href of entries that do not navigate anywhere.
const PlaceholderHref = ""

// DropReason explains why a row is missing from a tree.
type DropReason string

// DropReason values.
const (
	DropInactive       DropReason = "inactive"
	DropRequiresAdmin  DropReason = "requires_admin"
	DropRequiresAuth   DropReason = "requires_auth"
	DropOrphanedParent DropReason = "orphaned_parent"
	DropUnreachable    DropReason = "unreachable"
)

// Drop records a row excluded from the tree.
type Drop struct {
	ItemID string
	Reason DropReason
}

// Node is a visible menu entry with its resolved link and children.
type Node struct {
	Item     Item
	Href     string
	Children []Node
}

// Navigable reports whether the node links somewhere.
func (n Node) Navigable() bool { return n.Href != PlaceholderHref }

// Tree is the ordered forest of menu entries visible to one viewer.
type Tree struct {
	roots   []Node
	dropped []Drop
}

// EmptyTree returns a tree with no entries.
func EmptyTree() Tree { return Tree{} }

// Roots returns the top-level entries in display order.
func (t Tree) Roots() []Node { return t.roots }

// Dropped returns every row left out of the tree and why.
func (t Tree) Dropped() []Drop {
	result := make([]Drop, len(t.dropped))
	copy(result, t.dropped)
	return result
}

// Empty reports whether nothing is visible.
func (t Tree) Empty() bool { return len(t.roots) == 0 }

// Href resolves the link of a row by its type.
func Href(item Item) string {
	switch item.Type() {
	case TypePage:
		if item.PageSlug() == "" {
			return PlaceholderHref
		}
		return "/pages/" + url.PathEscape(item.PageSlug())
	case TypeLink:
		if item.URL() == "" {
			return PlaceholderHref
		}
		return item.URL()
	default:
		return PlaceholderHref
	}
}

// Build assembles the menu forest visible to viewer from flat rows.
//
// Rows hidden from the viewer are removed first. A row whose parent is not
// among the remaining rows is dropped, never promoted to a root. Siblings
// are ordered by position with ties kept in input order. Rows that sit on
// a parent cycle cannot be reached from a root and are dropped.
func Build(rows []Item, viewer session.Viewer) Tree {
	var dropped []Drop
	visible := make([]Item, 0, len(rows))
	for _, row := range rows {
		if reason, ok := hidden(row, viewer); ok {
			dropped = append(dropped, Drop{ItemID: row.ID(), Reason: reason})
			continue
		}
		visible = append(visible, row)
	}

	byID := make(map[string]struct{}, len(visible))
	for _, row := range visible {
		byID[row.ID()] = struct{}{}
	}

	var roots []Item
	children := make(map[string][]Item)
	for _, row := range visible {
		parent := row.ParentID()
		if parent == "" {
			roots = append(roots, row)
			continue
		}
		if _, ok := byID[parent]; !ok {
			dropped = append(dropped, Drop{ItemID: row.ID(), Reason: DropOrphanedParent})
			continue
		}
		children[parent] = append(children[parent], row)
	}

	visited := make(map[string]bool, len(visible))
	forest := assemble(roots, children, visited)

	for _, row := range visible {
		if visited[row.ID()] || row.ParentID() == "" {
			continue
		}
		if _, ok := byID[row.ParentID()]; !ok {
			continue
		}
		dropped = append(dropped, Drop{ItemID: row.ID(), Reason: DropUnreachable})
	}

	return Tree{roots: forest, dropped: dropped}
}

func hidden(row Item, viewer session.Viewer) (DropReason, bool) {
	switch {
	case !row.Active():
		return DropInactive, true
	case row.RequiresAdmin() && !viewer.IsAdmin():
		return DropRequiresAdmin, true
	case row.RequiresAuth() && !viewer.Authenticated():
		return DropRequiresAuth, true
	}
	return "", false
}

func assemble(siblings []Item, children map[string][]Item, visited map[string]bool) []Node {
	sorted := slices.Clone(siblings)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return cmp.Compare(a.Position(), b.Position())
	})

	nodes := make([]Node, 0, len(sorted))
	for _, item := range sorted {
		if visited[item.ID()] {
			continue
		}
		visited[item.ID()] = true
		nodes = append(nodes, Node{
			Item:     item,
			Href:     Href(item),
			Children: assemble(children[item.ID()], children, visited),
		})
	}
	return nodes
}
