package mcp

import (
	"fmt"
	"strings"
)

const (
	pageURIPrefix = "guildhall://pages/"
	markdownMIME  = "text/markdown"
)

// PageURITemplate is the resource template clients expand to read a page.
const PageURITemplate = pageURIPrefix + "{slug}"

// PageURI identifies a content page resource.
// Immutable value object.
type PageURI struct {
	slug string
}

// NewPageURI creates a PageURI for slug.
func NewPageURI(slug string) PageURI {
	return PageURI{slug: slug}
}

// ParsePageURI reads a guildhall://pages/{slug} URI.
func ParsePageURI(raw string) (PageURI, error) {
	slug, ok := strings.CutPrefix(raw, pageURIPrefix)
	slug = strings.TrimSuffix(slug, "/")
	if !ok || slug == "" || strings.Contains(slug, "/") {
		return PageURI{}, fmt.Errorf("invalid page uri: %q", raw)
	}
	return PageURI{slug: slug}, nil
}

// Slug returns the page slug.
func (u PageURI) Slug() string { return u.slug }

// String builds the URI string.
func (u PageURI) String() string { return pageURIPrefix + u.slug }
