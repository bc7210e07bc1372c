package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/yamdb/yamdb-server/internal/metrics"
)

// SearchParams configures a title search.
type SearchParams struct {
	Query    string
	Category string // exact category slug
	Genre    string // exact genre slug
	MinYear  int
	MaxYear  int

	Limit  int
	Offset int
}

// SearchResult is one page of hits.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a matching title.
type SearchHit struct {
	ID         int64             `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Year       int               `json:"year"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs params against the index. Hits are ordered by relevance.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "id"})
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("name")
	req.Fields = []string{"name", "year"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	metrics.SearchQueriesTotal.Inc()

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with malformed id", "id", hit.ID)
			continue
		}
		h := SearchHit{ID: id, Score: hit.Score}
		if n, ok := hit.Fields["name"].(string); ok {
			h.Name = n
		}
		if y, ok := hit.Fields["year"].(float64); ok {
			h.Year = int(y)
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery matches the text against name (boosted), genre names and
// description, and ANDs the keyword and year filters.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		genreMatch := bleve.NewMatchQuery(q)
		genreMatch.SetField("genre_names")
		genreMatch.SetBoost(1.5)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")

		// Typo tolerance on the name
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, genreMatch, descMatch, fuzzy}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Category != "" {
		tq := bleve.NewTermQuery(params.Category)
		tq.SetField("category")
		queries = append(queries, tq)
	}

	if params.Genre != "" {
		tq := bleve.NewTermQuery(params.Genre)
		tq.SetField("genre_slugs")
		queries = append(queries, tq)
	}

	if params.MinYear != 0 || params.MaxYear != 0 {
		var lo, hi *float64
		inclusive := true
		if params.MinYear != 0 {
			v := float64(params.MinYear)
			lo = &v
		}
		if params.MaxYear != 0 {
			v := float64(params.MaxYear)
			hi = &v
		}
		rq := bleve.NewNumericRangeInclusiveQuery(lo, hi, &inclusive, &inclusive)
		rq.SetField("year")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
