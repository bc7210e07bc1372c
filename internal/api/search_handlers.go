package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yamdb/yamdb-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchTitles",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/titles",
		Summary:     "Search titles",
		Description: "Full-text search over title names, descriptions and genres, ranked by relevance",
		Tags:        []string{"Search"},
	}, s.handleSearchTitles)
}

// === DTOs ===

// SearchTitlesInput contains parameters for searching titles.
type SearchTitlesInput struct {
	PageParams
	Query    string `query:"q" maxLength:"200" doc:"Search query"`
	Category string `query:"category" doc:"Category slug"`
	Genre    string `query:"genre" doc:"Genre slug"`
	MinYear  int    `query:"min_year" doc:"Earliest release year"`
	MaxYear  int    `query:"max_year" doc:"Latest release year"`
}

// TitleHitResponse is one search match.
type TitleHitResponse struct {
	Title      TitleResponse     `json:"title" doc:"Matched title"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches by field"`
}

// SearchTitlesResponse contains one page of matches.
type SearchTitlesResponse struct {
	Count   int                `json:"count" doc:"Total number of matches"`
	TookMs  int64              `json:"took_ms" doc:"Search time in milliseconds"`
	Results []TitleHitResponse `json:"results" doc:"Matches of this page"`
}

// SearchTitlesOutput wraps the search response for Huma.
type SearchTitlesOutput struct {
	Body SearchTitlesResponse
}

// === Handlers ===

func (s *Server) handleSearchTitles(ctx context.Context, input *SearchTitlesInput) (*SearchTitlesOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Search.SearchTitles(ctx, search.SearchParams{
		Query:    input.Query,
		Category: input.Category,
		Genre:    input.Genre,
		MinYear:  input.MinYear,
		MaxYear:  input.MaxYear,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return nil, err
	}

	results := make([]TitleHitResponse, len(res.Hits))
	for i := range res.Hits {
		results[i] = TitleHitResponse{
			Title:      titleResponse(&res.Hits[i].Title),
			Score:      res.Hits[i].Score,
			Highlights: res.Hits[i].Highlights,
		}
	}

	return &SearchTitlesOutput{
		Body: SearchTitlesResponse{Count: res.Total, TookMs: res.TookMs, Results: results},
	}, nil
}
