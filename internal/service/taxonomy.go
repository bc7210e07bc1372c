package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
	"github.com/yamdb/yamdb-server/internal/util"
	"github.com/yamdb/yamdb-server/internal/validation"
)

// TermRequest is the payload for creating a category or a genre.
// When Slug is empty it is derived from Name.
type TermRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// normalize trims the input and fills in a derived slug.
func (r *TermRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Slug == "" {
		r.Slug = util.Slugify(r.Name)
	}
}

// CategoryService manages categories. Anyone may read them, only admins write.
type CategoryService struct {
	store     store.CategoryStore
	enforcer  *authz.Enforcer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store store.CategoryStore, enforcer *authz.Enforcer, validator *validation.Validator, logger *slog.Logger) *CategoryService {
	return &CategoryService{store: store, enforcer: enforcer, validator: validator, logger: logger}
}

// List returns categories ordered by name, filtered by a name substring.
func (s *CategoryService) List(ctx context.Context, search string, page store.Page) (store.Result[domain.Category], error) {
	return s.store.ListCategories(ctx, search, page)
}

// Get returns a category by slug.
func (s *CategoryService) Get(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "category not found")
	}
	return c, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, actor *domain.User, req TermRequest) (*domain.Category, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceCategory, authz.ActionCreate, 0); err != nil {
		return nil, err
	}
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	c := &domain.Category{Name: req.Name, Slug: req.Slug}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, domainerrors.FieldErrors{}.Add("slug", "category with this slug already exists").Err()
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("category created", "slug", c.Slug, "by", actor.Username)
	return c, nil
}

// Delete removes a category. Its titles keep existing without a category.
func (s *CategoryService) Delete(ctx context.Context, actor *domain.User, slug string) error {
	if err := authorize(s.enforcer, actor, authz.ResourceCategory, authz.ActionDelete, 0); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, slug); err != nil {
		return notFound(err, "category not found")
	}
	s.logger.Info("category deleted", "slug", slug, "by", actor.Username)
	return nil
}

// GenreService manages genres. Anyone may read them, only admins write.
type GenreService struct {
	store     store.GenreStore
	enforcer  *authz.Enforcer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewGenreService creates a new genre service.
func NewGenreService(store store.GenreStore, enforcer *authz.Enforcer, validator *validation.Validator, logger *slog.Logger) *GenreService {
	return &GenreService{store: store, enforcer: enforcer, validator: validator, logger: logger}
}

// List returns genres ordered by name, filtered by a name substring.
func (s *GenreService) List(ctx context.Context, search string, page store.Page) (store.Result[domain.Genre], error) {
	return s.store.ListGenres(ctx, search, page)
}

// Get returns a genre by slug.
func (s *GenreService) Get(ctx context.Context, slug string) (*domain.Genre, error) {
	g, err := s.store.GetGenreBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "genre not found")
	}
	return g, nil
}

// Create adds a genre.
func (s *GenreService) Create(ctx context.Context, actor *domain.User, req TermRequest) (*domain.Genre, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceGenre, authz.ActionCreate, 0); err != nil {
		return nil, err
	}
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	g := &domain.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.store.CreateGenre(ctx, g); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, domainerrors.FieldErrors{}.Add("slug", "genre with this slug already exists").Err()
		}
		return nil, fmt.Errorf("create genre: %w", err)
	}

	s.logger.Info("genre created", "slug", g.Slug, "by", actor.Username)
	return g, nil
}

// Delete removes a genre and unlinks it from every title.
func (s *GenreService) Delete(ctx context.Context, actor *domain.User, slug string) error {
	if err := authorize(s.enforcer, actor, authz.ResourceGenre, authz.ActionDelete, 0); err != nil {
		return err
	}
	if err := s.store.DeleteGenre(ctx, slug); err != nil {
		return notFound(err, "genre not found")
	}
	s.logger.Info("genre deleted", "slug", slug, "by", actor.Username)
	return nil
}
