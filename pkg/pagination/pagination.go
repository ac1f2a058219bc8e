// Package pagination reads page parameters from list requests and wraps
// list results in a page envelope.
package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps Offset within int32 for any page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Params is a 1-based page request.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// FromRequest reads ?page= and ?page_size=. Missing or malformed values fall
// back to the defaults; pages above MaxPage and page sizes above MaxPageSize
// are clamped.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, PageSize: DefaultPageSize}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = min(v, MaxPage)
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 {
		p.PageSize = min(v, MaxPageSize)
	}
	return p
}

// Result is one page of a list.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewResult builds the page envelope. A nil slice is rendered as [].
func NewResult[T any](data []T, totalCount int, p Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := (totalCount + p.PageSize - 1) / p.PageSize
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}
