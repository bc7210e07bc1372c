package sqlite

import (
	"context"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
)

// CreateCategory inserts a category and sets its ID.
// Returns store.ErrAlreadyExists if the slug is taken.
func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	id, err := s.insertTerm(ctx, tableCategories, c.Name, c.Slug)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// GetCategoryBySlug returns the category with the given slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	t, err := s.getTermBySlug(ctx, tableCategories, slug)
	if err != nil {
		return nil, err
	}
	return &domain.Category{ID: t.ID, Name: t.Name, Slug: t.Slug}, nil
}

// ListCategories returns categories ordered by name, optionally filtered by a name substring.
func (s *Store) ListCategories(ctx context.Context, search string, page store.Page) (store.Result[domain.Category], error) {
	terms, total, err := s.listTerms(ctx, tableCategories, search, page)
	if err != nil {
		return store.Result[domain.Category]{}, err
	}
	items := make([]domain.Category, len(terms))
	for i, t := range terms {
		items[i] = domain.Category{ID: t.ID, Name: t.Name, Slug: t.Slug}
	}
	return store.Result[domain.Category]{Items: items, Total: total}, nil
}

// DeleteCategory removes a category. Titles in it lose their category.
func (s *Store) DeleteCategory(ctx context.Context, slug string) error {
	affected, err := s.deleteTerm(ctx, tableCategories, slug)
	if err != nil {
		return err
	}
	for _, id := range affected {
		s.reindexTitle(ctx, id)
	}
	return nil
}
