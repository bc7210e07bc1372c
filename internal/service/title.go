package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
	"github.com/yamdb/yamdb-server/internal/validation"
)

// CreateTitleRequest is the write payload for a new title. Category and genres
// are referenced by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Year        int      `json:"year" validate:"required,notfuture"`
	Description string   `json:"description"`
	Genre       []string `json:"genre" validate:"required,dive,required"`
	Category    string   `json:"category" validate:"required"`
}

// UpdateTitleRequest is a partial update. Nil fields are left unchanged.
type UpdateTitleRequest struct {
	Name        *string   `json:"name" validate:"omitempty,notblank,max=200"`
	Year        *int      `json:"year" validate:"omitempty,notfuture"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre" validate:"omitempty,dive,required"`
	Category    *string   `json:"category" validate:"omitempty,notblank"`
}

// TitleService manages titles. Anyone may read them, only admins write.
type TitleService struct {
	store     store.Store
	enforcer  *authz.Enforcer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTitleService creates a new title service.
func NewTitleService(store store.Store, enforcer *authz.Enforcer, validator *validation.Validator, logger *slog.Logger) *TitleService {
	return &TitleService{store: store, enforcer: enforcer, validator: validator, logger: logger}
}

// List returns titles ordered by year, narrowed by f. Each title carries its rating.
func (s *TitleService) List(ctx context.Context, f store.TitleFilter, page store.Page) (store.Result[domain.Title], error) {
	return s.store.ListTitles(ctx, f, page)
}

// Get returns one title with its rating.
func (s *TitleService) Get(ctx context.Context, id int64) (*domain.Title, error) {
	t, err := s.store.GetTitle(ctx, id)
	if err != nil {
		return nil, notFound(err, "title not found")
	}
	return t, nil
}

// Create adds a title.
func (s *TitleService) Create(ctx context.Context, actor *domain.User, req CreateTitleRequest) (*domain.Title, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceTitle, authz.ActionCreate, 0); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)

	fields := s.validator.Fields(req)
	t := &domain.Title{Name: req.Name, Year: req.Year, Description: req.Description}
	if !fields.Has("category") {
		fields = s.resolveCategory(ctx, req.Category, t, fields)
	}
	if !fields.Has("genre") {
		fields = s.resolveGenres(ctx, req.Genre, t, fields)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.store.CreateTitle(ctx, t); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}
	s.logger.Info("title created", "title_id", t.ID, "name", t.Name, "by", actor.Username)

	return s.Get(ctx, t.ID)
}

// Update applies a partial update to a title.
func (s *TitleService) Update(ctx context.Context, actor *domain.User, id int64, req UpdateTitleRequest) (*domain.Title, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceTitle, authz.ActionUpdate, 0); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	fields := s.validator.Fields(req)
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Year != nil {
		t.Year = *req.Year
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Category != nil && !fields.Has("category") {
		fields = s.resolveCategory(ctx, *req.Category, t, fields)
	}
	if req.Genre != nil && !fields.Has("genre") {
		fields = s.resolveGenres(ctx, *req.Genre, t, fields)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTitle(ctx, t); err != nil {
		return nil, notFound(err, "title not found")
	}
	s.logger.Info("title updated", "title_id", t.ID, "by", actor.Username)

	return s.Get(ctx, t.ID)
}

// Delete removes a title. Its reviews are kept, detached from any title.
func (s *TitleService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if err := authorize(s.enforcer, actor, authz.ResourceTitle, authz.ActionDelete, 0); err != nil {
		return err
	}
	if err := s.store.DeleteTitle(ctx, id); err != nil {
		return notFound(err, "title not found")
	}
	s.logger.Info("title deleted", "title_id", id, "by", actor.Username)
	return nil
}

func (s *TitleService) resolveCategory(ctx context.Context, slug string, t *domain.Title, fields domainerrors.FieldErrors) domainerrors.FieldErrors {
	c, err := s.store.GetCategoryBySlug(ctx, slug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fields.Add("category", fmt.Sprintf("category %q does not exist", slug))
	case err != nil:
		return fields.Add("category", "could not be resolved")
	}
	t.Category = c
	return fields
}

func (s *TitleService) resolveGenres(ctx context.Context, slugs []string, t *domain.Title, fields domainerrors.FieldErrors) domainerrors.FieldErrors {
	genres := make([]domain.Genre, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true

		g, err := s.store.GetGenreBySlug(ctx, slug)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fields = fields.Add("genre", fmt.Sprintf("genre %q does not exist", slug))
			continue
		case err != nil:
			fields = fields.Add("genre", "could not be resolved")
			continue
		}
		genres = append(genres, *g)
	}
	t.Genres = genres
	return fields
}
