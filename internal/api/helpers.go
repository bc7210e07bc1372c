package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/yamdb/yamdb-server/internal/store"
)

// PageParams are the limit/offset query parameters shared by every listing.
type PageParams struct {
	Limit  int `query:"limit" minimum:"0" doc:"Number of results to return per page"`
	Offset int `query:"offset" minimum:"0" doc:"The initial index from which to return the results"`
}

// Page is the envelope of every listing.
type Page[T any] struct {
	Count    int     `json:"count" doc:"Total number of matching objects"`
	Next     *string `json:"next" doc:"URL of the next page, null on the last page"`
	Previous *string `json:"previous" doc:"URL of the previous page, null on the first page"`
	Results  []T     `json:"results" doc:"Objects of this page"`
}

// page clamps the requested window to the configured sizes.
func (s *Server) page(p PageParams) store.Page {
	return store.Page{Limit: p.Limit, Offset: p.Offset}.Normalize(s.opts.DefaultPageSize, s.opts.MaxPageSize)
}

// newPage converts a store result into the response envelope, mapping every
// item through conv and linking the neighbouring pages.
func newPage[T, R any](ctx context.Context, res store.Result[T], p store.Page, conv func(*T) R) Page[R] {
	out := Page[R]{
		Count:   res.Total,
		Results: make([]R, len(res.Items)),
	}
	for i := range res.Items {
		out.Results[i] = conv(&res.Items[i])
	}

	if res.HasNext(p) {
		out.Next = pageLink(ctx, p.Limit, p.Offset+p.Limit)
	}
	if p.Offset > 0 {
		prev := max(p.Offset-p.Limit, 0)
		out.Previous = pageLink(ctx, p.Limit, prev)
	}
	return out
}

// pageLink rewrites the current request URL to point at another window.
// The first page drops the offset parameter.
func pageLink(ctx context.Context, limit, offset int) *string {
	u := requestURL(ctx)
	if u == nil {
		u = &url.URL{}
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
