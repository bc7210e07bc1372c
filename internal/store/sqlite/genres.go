package sqlite

import (
	"context"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// CreateGenre inserts a genre and sets its ID.
// Returns store.ErrAlreadyExists if the slug is taken.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	id, err := s.insertTerm(ctx, tableGenres, g.Name, g.Slug)
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// GetGenreBySlug returns the genre with the given slug.
func (s *Store) GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error) {
	t, err := s.getTermBySlug(ctx, tableGenres, slug)
	if err != nil {
		return nil, err
	}
	return &domain.Genre{ID: t.ID, Name: t.Name, Slug: t.Slug}, nil
}

// ListGenres returns genres ordered by name, optionally filtered by a name substring.
func (s *Store) ListGenres(ctx context.Context, search string, page store.Page) (store.Result[domain.Genre], error) {
	terms, total, err := s.listTerms(ctx, tableGenres, search, page)
	if err != nil {
		return store.Result[domain.Genre]{}, err
	}
	items := make([]domain.Genre, len(terms))
	for i, t := range terms {
		items[i] = domain.Genre{ID: t.ID, Name: t.Name, Slug: t.Slug}
	}
	return store.Result[domain.Genre]{Items: items, Total: total}, nil
}

// DeleteGenre removes a genre. Titles keep existing without it.
func (s *Store) DeleteGenre(ctx context.Context, slug string) error {
	affected, err := s.deleteTerm(ctx, tableGenres, slug)
	if err != nil {
		return err
	}
	for _, id := range affected {
		s.reindexTitle(ctx, id)
	}
	return nil
}
