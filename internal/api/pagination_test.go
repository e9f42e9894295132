package api

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-review-service/internal/domain"
)

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantPage  int
		wantLimit int
		wantErrs  []string // имена полей с ошибками
	}{
		{name: "defaults", target: "/api/books", wantPage: 1, wantLimit: 10},
		{name: "explicit values", target: "/api/books?page=3&limit=5", wantPage: 3, wantLimit: 5},
		{name: "limit capped at maximum", target: "/api/books?limit=100", wantPage: 1, wantLimit: domain.MaxPageSize},
		{name: "non-numeric page", target: "/api/books?page=abc", wantErrs: []string{"page"}},
		{name: "zero page", target: "/api/books?page=0", wantErrs: []string{"page"}},
		{name: "negative limit", target: "/api/books?limit=-1", wantErrs: []string{"limit"}},
		{name: "both invalid", target: "/api/books?page=x&limit=y", wantErrs: []string{"page", "limit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			pageReq, fieldErrs := parsePageRequest(req)

			if tt.wantErrs != nil {
				require.Len(t, fieldErrs, len(tt.wantErrs))
				for i, field := range tt.wantErrs {
					assert.Equal(t, field, fieldErrs[i].Field)
				}
				return
			}
			require.Empty(t, fieldErrs)
			assert.Equal(t, tt.wantPage, pageReq.Page)
			assert.Equal(t, tt.wantLimit, pageReq.Limit)
		})
	}
}

func TestPaginationLinks(t *testing.T) {
	mustURL := func(raw string) *url.URL {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return u
	}

	t.Run("middle page has all four relations", func(t *testing.T) {
		links := paginationLinks(mustURL("/api/books?page=2&limit=3"), 2, 3)
		assert.Contains(t, links, `</api/books?limit=3&page=1>; rel="first"`)
		assert.Contains(t, links, `</api/books?limit=3&page=1>; rel="prev"`)
		assert.Contains(t, links, `</api/books?limit=3&page=3>; rel="next"`)
		assert.Contains(t, links, `</api/books?limit=3&page=3>; rel="last"`)
	})

	t.Run("first page has no prev", func(t *testing.T) {
		links := paginationLinks(mustURL("/api/books"), 1, 3)
		assert.NotContains(t, links, `rel="prev"`)
		assert.Contains(t, links, `rel="next"`)
		assert.Contains(t, links, `rel="first"`)
		assert.Contains(t, links, `rel="last"`)
	})

	t.Run("last page has no next", func(t *testing.T) {
		links := paginationLinks(mustURL("/api/books?page=3"), 3, 3)
		assert.Contains(t, links, `rel="prev"`)
		assert.NotContains(t, links, `rel="next"`)
	})

	t.Run("single page has only first and last", func(t *testing.T) {
		links := paginationLinks(mustURL("/api/books"), 1, 1)
		assert.NotContains(t, links, `rel="prev"`)
		assert.NotContains(t, links, `rel="next"`)
		assert.Contains(t, links, `rel="first"`)
		assert.Contains(t, links, `rel="last"`)
	})

	t.Run("empty result set yields no header", func(t *testing.T) {
		assert.Empty(t, paginationLinks(mustURL("/api/books"), 1, 0))
	})

	t.Run("other query params are preserved", func(t *testing.T) {
		links := paginationLinks(mustURL("/api/books?title=go&page=2&limit=3"), 2, 4)
		assert.Contains(t, links, `</api/books?limit=3&page=3&title=go>; rel="next"`)
	})
}
