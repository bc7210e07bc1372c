package search

import (
	"context"
	"fmt"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// TitleSource is the slice of the store a reindex reads from.
type TitleSource interface {
	ListTitles(ctx context.Context, f store.TitleFilter, page store.Page) (store.Result[domain.Title], error)
	CountTitles(ctx context.Context) (int, error)
}

// Reindex rebuilds the index from src and returns the number of titles indexed.
func (s *SearchIndex) Reindex(ctx context.Context, src TitleSource) (int, error) {
	if err := s.Rebuild(); err != nil {
		return 0, err
	}

	res, err := src.ListTitles(ctx, store.TitleFilter{}, store.All)
	if err != nil {
		return 0, fmt.Errorf("list titles: %w", err)
	}
	if err := s.IndexTitles(res.Items); err != nil {
		return 0, err
	}
	s.updateGauge()

	s.logger.Info("reindexed titles", "count", len(res.Items))
	return len(res.Items), nil
}

// EnsureFresh reindexes when the document count disagrees with the store,
// which happens after a fresh index, a mapping change or writes made while
// the index was unavailable. It reports whether a reindex ran.
func (s *SearchIndex) EnsureFresh(ctx context.Context, src TitleSource) (bool, error) {
	want, err := src.CountTitles(ctx)
	if err != nil {
		return false, fmt.Errorf("count titles: %w", err)
	}
	have, err := s.DocumentCount()
	if err != nil {
		return false, fmt.Errorf("count documents: %w", err)
	}
	if uint64(want) == have {
		return false, nil
	}

	s.logger.Info("search index is stale, reindexing", "titles", want, "documents", have)
	if _, err := s.Reindex(ctx, src); err != nil {
		return false, err
	}
	return true, nil
}
