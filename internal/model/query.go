package model

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Page*Size far from int overflow.
	MaxPage = 1_000_000
)

// ListQuery holds the pagination and ordering parameters shared by every
// collection route.
type ListQuery struct {
	Page  int    `query:"page" validate:"min=0,max=1000000"`
	Size  int    `query:"size" validate:"min=1,max=100"`
	Order string `query:"order"`
}

// SetDefaults runs before binding so absent parameters keep their defaults.
func (q *ListQuery) SetDefaults() {
	q.Page = 0
	q.Size = DefaultPageSize
}

// PageSpec converts the query parameters into the store-facing page request.
func (q *ListQuery) PageSpec() PageSpec {
	return PageSpec{
		Page: q.Page,
		Size: q.Size,
		Sort: ParseOrder(q.Order),
	}
}

// Sort orders a page by a single attribute.
type Sort struct {
	Field string
	Desc  bool
}

// PageSpec describes one zero-based page of a sorted result set.
// A nil Sort leaves the order to the store (by id).
type PageSpec struct {
	Page int
	Size int
	Sort *Sort
}

func (p PageSpec) Offset() int {
	return p.Page * p.Size
}

// ParseOrder reads "field" as ascending and "-field" as descending.
// An empty token means no explicit order.
func ParseOrder(order string) *Sort {
	order = strings.TrimSpace(order)
	if order == "" {
		return nil
	}
	if field, ok := strings.CutPrefix(order, "-"); ok {
		return &Sort{Field: field, Desc: true}
	}
	return &Sort{Field: order}
}
