package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
		offset   int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "?page=3&page_size=50", 3, 50, 100},
		{"negative page", "?page=-1", 1, 20, 0},
		{"zero page", "?page=0", 1, 20, 0},
		{"non numeric", "?page=abc&page_size=xyz", 1, 20, 0},
		{"clamped size", "?page=2&page_size=500", 2, 100, 100},
		{"zero size", "?page_size=0", 1, 20, 0},
		{"huge page clamped", "?page=9223372036854775807&page_size=100", MaxPage, 100, (MaxPage - 1) * 100},
		{"page past int range", "?page=99999999999999999999", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/listings"+tt.query, nil)
			p := FromRequest(req)

			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestNewResult_TotalPages(t *testing.T) {
	tests := []struct {
		total, page, size int
		pages             int
		hasNext           bool
	}{
		{0, 1, 20, 0, false},
		{20, 1, 20, 1, false},
		{21, 1, 20, 2, true},
		{21, 2, 20, 2, false},
		{95, 3, 10, 10, true},
	}

	for _, tt := range tests {
		r := NewResult([]int{1}, tt.total, Params{Page: tt.page, PageSize: tt.size})
		assert.Equal(t, tt.pages, r.TotalPages, "total=%d size=%d", tt.total, tt.size)
		assert.Equal(t, tt.hasNext, r.HasNext, "total=%d page=%d", tt.total, tt.page)
	}
}

func TestNewResult_NilDataRendersEmptyArray(t *testing.T) {
	r := NewResult[string](nil, 0, Params{Page: 1, PageSize: 20})

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"data":[],"total_count":0,"page":1,"page_size":20,"total_pages":0,"has_next":false}`,
		string(b))
}
