package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/search"
	"github.com/yamdb/yamdb-server/internal/store"
)

// TitleHit is a search match hydrated with the stored title.
type TitleHit struct {
	Title      domain.Title
	Score      float64
	Highlights map[string]string
}

// TitleSearchResult is one page of title search results.
type TitleSearchResult struct {
	Total  int
	TookMs int64
	Hits   []TitleHit
}

// SearchService answers full-text title queries. The index returns ids and
// the store supplies the current title, rating included.
type SearchService struct {
	index  *search.SearchIndex
	store  store.TitleStore
	logger *slog.Logger
}

// NewSearchService creates a new search service. A nil index disables search.
func NewSearchService(index *search.SearchIndex, store store.TitleStore, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Enabled reports whether an index is attached.
func (s *SearchService) Enabled() bool {
	return s.index != nil
}

// DocumentCount returns the number of indexed titles.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, domainerrors.Unavailable("search is disabled")
	}
	return s.index.DocumentCount()
}

// SearchTitles runs a relevance-ranked query over title names, descriptions and genres.
func (s *SearchService) SearchTitles(ctx context.Context, params search.SearchParams) (*TitleSearchResult, error) {
	if s.index == nil {
		return nil, domainerrors.Unavailable("search is disabled")
	}
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return nil, domainerrors.FieldErrors{}.Add("q", "this field is required").Err()
	}
	if params.MinYear > 0 && params.MaxYear > 0 && params.MinYear > params.MaxYear {
		return nil, domainerrors.FieldErrors{}.Add("min_year", "must not be greater than max_year").Err()
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}

	out := &TitleSearchResult{Total: int(res.Total), TookMs: res.TookMs, Hits: make([]TitleHit, 0, len(res.Hits))}
	for _, hit := range res.Hits {
		t, err := s.store.GetTitle(ctx, hit.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted between indexing and now.
			s.logger.Debug("search hit without title", "title_id", hit.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load title %d: %w", hit.ID, err)
		}
		out.Hits = append(out.Hits, TitleHit{Title: *t, Score: hit.Score, Highlights: hit.Highlights})
	}
	return out, nil
}

// Reindex rebuilds the index from the store.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domainerrors.Unavailable("search is disabled")
	}
	return s.index.Reindex(ctx, s.store)
}
