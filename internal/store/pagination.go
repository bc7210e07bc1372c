package store

// Page selects a window of a listing with limit/offset semantics.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page: a non-positive limit becomes def, limits above max become max,
// negative offsets become zero.
func (p Page) Normalize(def, maxLimit int) Page {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// All is a page large enough to return every row. Used by reindexing and fixtures.
var All = Page{Limit: -1}

// Result is one page of a listing together with the total row count.
type Result[T any] struct {
	Items []T
	Total int
}

// HasNext reports whether rows exist after this page.
func (r Result[T]) HasNext(p Page) bool {
	return p.Limit > 0 && p.Offset+len(r.Items) < r.Total
}
