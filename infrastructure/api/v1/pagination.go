package v1

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
)

// Page sizes for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Paging is a 1-based page request.
type Paging struct {
	Number int
	Size   int
}

// ParsePaging reads page and page_size. Missing or bad values fall back to
// the defaults and page_size is capped at MaxPageSize.
func ParsePaging(q url.Values) Paging {
	p := Paging{Number: 1, Size: DefaultPageSize}
	if n := positiveInt(q.Get("page")); n > 0 {
		p.Number = n
	}
	if n := positiveInt(q.Get("page_size")); n > 0 {
		p.Size = min(n, MaxPageSize)
	}
	return p
}

// positiveInt parses s, returning 0 for anything that is not a positive integer.
func positiveInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Offset is the number of rows before this page.
func (p Paging) Offset() int { return (p.Number - 1) * p.Size }

// Pages is how many pages total rows fill.
func (p Paging) Pages(total int64) int {
	size := int64(p.Size)
	return int((total + size - 1) / size)
}

// Slice returns the requested page of items that were loaded in full.
func Slice[T any](items []T, p Paging) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.Size, len(items))
	return items[start:end]
}

// Paginate adds page counts and navigation links to a list document.
func Paginate(doc *jsonapi.Document, r *http.Request, p Paging, total int64) {
	pages := p.Pages(total)
	doc.Meta = &jsonapi.Meta{
		"page":        p.Number,
		"page_size":   p.Size,
		"total_count": total,
		"total_pages": pages,
	}

	link := func(n int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		q.Set("page_size", strconv.Itoa(p.Size))
		return r.URL.Path + "?" + q.Encode()
	}
	links := &jsonapi.Links{Self: link(p.Number), First: link(1)}
	if pages > 0 {
		links.Last = link(pages)
	}
	if p.Number > 1 {
		links.Prev = link(p.Number - 1)
	}
	if p.Number < pages {
		links.Next = link(p.Number + 1)
	}
	doc.Links = links
}
