// Package pagination holds the page parameters and response envelope shared
// by every list endpoint.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// DefaultPerPage is the page size of every list endpoint.
const DefaultPerPage = 10

// MaxPage caps ?page= so the computed OFFSET cannot overflow.
const MaxPage = 100000

// ListOptions holds pagination parameters for list queries.
type ListOptions struct {
	Page    int
	PerPage int
}

// FromQuery reads ?page= from the request. Missing or invalid values fall
// back to the first page; larger values are capped at MaxPage.
func FromQuery(c echo.Context) ListOptions {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	page = clampPage(page)
	return ListOptions{Page: page, PerPage: DefaultPerPage}
}

// Offset returns the SQL OFFSET value for the current page.
func (o ListOptions) Offset() int {
	return (clampPage(o.Page) - 1) * o.Limit()
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return min(page, MaxPage)
}

// Limit returns the SQL LIMIT value, defaulting to DefaultPerPage.
func (o ListOptions) Limit() int {
	if o.PerPage < 1 {
		return DefaultPerPage
	}
	return o.PerPage
}

// Page is the JSON envelope for a page of results.
type Page[T any] struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Results []T `json:"results"`
}

// NewPage wraps items in an envelope. A nil slice is replaced with an empty
// one so clients always receive a JSON array.
func NewPage[T any](items []T, total int, opts ListOptions) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Count: total, Page: clampPage(opts.Page), PerPage: opts.Limit(), Results: items}
}
