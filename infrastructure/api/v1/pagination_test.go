package v1

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emberline/guildhall/infrastructure/api/jsonapi"
)

func TestParsePaging(t *testing.T) {
	tests := []struct {
		query string
		want  Paging
	}{
		{"", Paging{Number: 1, Size: DefaultPageSize}},
		{"page=3&page_size=5", Paging{Number: 3, Size: 5}},
		{"page=0&page_size=-2", Paging{Number: 1, Size: DefaultPageSize}},
		{"page=two", Paging{Number: 1, Size: DefaultPageSize}},
		{"page_size=1000", Paging{Number: 1, Size: MaxPageSize}},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		assert.Equal(t, tt.want, ParsePaging(q), tt.query)
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Slice(items, Paging{Number: 2, Size: 2}))
	assert.Equal(t, []int{5}, Slice(items, Paging{Number: 3, Size: 2}))
	assert.Empty(t, Slice(items, Paging{Number: 9, Size: 2}))
}

func TestPaginate(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/missions?outcome=success&page=2&page_size=2", nil)
	doc := jsonapi.NewListResponse(nil)

	Paginate(doc, r, Paging{Number: 2, Size: 2}, 5)

	assert.Equal(t, 3, (*doc.Meta)["total_pages"])
	assert.Equal(t, int64(5), (*doc.Meta)["total_count"])
	assert.Equal(t, "/api/v1/missions?outcome=success&page=2&page_size=2", doc.Links.Self)
	assert.Equal(t, "/api/v1/missions?outcome=success&page=1&page_size=2", doc.Links.Prev)
	assert.Equal(t, "/api/v1/missions?outcome=success&page=3&page_size=2", doc.Links.Next)
	assert.Equal(t, "/api/v1/missions?outcome=success&page=3&page_size=2", doc.Links.Last)
}

func TestPaginate_Empty(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/pages", nil)
	doc := jsonapi.NewListResponse(nil)

	Paginate(doc, r, Paging{Number: 1, Size: DefaultPageSize}, 0)

	assert.Equal(t, 0, (*doc.Meta)["total_pages"])
	assert.Empty(t, doc.Links.Last)
	assert.Empty(t, doc.Links.Next)
	assert.Empty(t, doc.Links.Prev)
}
