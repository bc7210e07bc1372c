package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/service"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns categories ordered by name",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCategory",
		Method:        http.MethodPost,
		Path:          "/api/v1/categories",
		Summary:       "Create category",
		Description:   "Creates a category. Admin only.",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{slug}",
		Summary:     "Get category",
		Description: "Returns a category by slug",
		Tags:        []string{"Categories"},
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCategory",
		Method:        http.MethodDelete,
		Path:          "/api/v1/categories/{slug}",
		Summary:       "Delete category",
		Description:   "Deletes a category. Its titles are kept without a category. Admin only.",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCategory)
}

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns genres ordered by name",
		Tags:        []string{"Genres"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGenre",
		Method:        http.MethodPost,
		Path:          "/api/v1/genres",
		Summary:       "Create genre",
		Description:   "Creates a genre. Admin only.",
		Tags:          []string{"Genres"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{slug}",
		Summary:     "Get genre",
		Description: "Returns a genre by slug",
		Tags:        []string{"Genres"},
	}, s.handleGetGenre)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteGenre",
		Method:        http.MethodDelete,
		Path:          "/api/v1/genres/{slug}",
		Summary:       "Delete genre",
		Description:   "Deletes a genre and removes it from every title. Admin only.",
		Tags:          []string{"Genres"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteGenre)
}

// === DTOs ===

// TermResponse is a category or a genre in API responses.
type TermResponse struct {
	Name string `json:"name" doc:"Display name"`
	Slug string `json:"slug" doc:"URL-safe unique key"`
}

// ListTermsInput contains parameters for listing categories or genres.
type ListTermsInput struct {
	PageParams
	Search string `query:"search" doc:"Case-insensitive substring of the name"`
}

// ListTermsOutput wraps a page of categories or genres for Huma.
type ListTermsOutput struct {
	Body Page[TermResponse]
}

// TermRequest is the request body for creating a category or a genre.
type TermRequest struct {
	Name string `json:"name,omitempty" doc:"Display name"`
	Slug string `json:"slug,omitempty" doc:"URL-safe unique key, derived from the name when omitted"`
}

// CreateTermInput wraps the create request for Huma.
type CreateTermInput struct {
	Body TermRequest
}

// TermOutput wraps a single category or genre for Huma.
type TermOutput struct {
	Body TermResponse
}

// TermSlugInput addresses a category or a genre by slug.
type TermSlugInput struct {
	Slug string `path:"slug" doc:"Category or genre slug"`
}

func categoryResponse(c *domain.Category) TermResponse {
	return TermResponse{Name: c.Name, Slug: c.Slug}
}

func genreResponse(g *domain.Genre) TermResponse {
	return TermResponse{Name: g.Name, Slug: g.Slug}
}

// === Handlers ===

func (s *Server) handleListCategories(ctx context.Context, input *ListTermsInput) (*ListTermsOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Categories.List(ctx, input.Search, page)
	if err != nil {
		return nil, err
	}
	return &ListTermsOutput{Body: newPage(ctx, res, page, categoryResponse)}, nil
}

func (s *Server) handleCreateCategory(ctx context.Context, input *CreateTermInput) (*TermOutput, error) {
	c, err := s.services.Categories.Create(ctx, currentUser(ctx), service.TermRequest{
		Name: input.Body.Name,
		Slug: input.Body.Slug,
	})
	if err != nil {
		return nil, err
	}
	return &TermOutput{Body: categoryResponse(c)}, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *TermSlugInput) (*TermOutput, error) {
	c, err := s.services.Categories.Get(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &TermOutput{Body: categoryResponse(c)}, nil
}

func (s *Server) handleDeleteCategory(ctx context.Context, input *TermSlugInput) (*struct{}, error) {
	if err := s.services.Categories.Delete(ctx, currentUser(ctx), input.Slug); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleListGenres(ctx context.Context, input *ListTermsInput) (*ListTermsOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Genres.List(ctx, input.Search, page)
	if err != nil {
		return nil, err
	}
	return &ListTermsOutput{Body: newPage(ctx, res, page, genreResponse)}, nil
}

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateTermInput) (*TermOutput, error) {
	g, err := s.services.Genres.Create(ctx, currentUser(ctx), service.TermRequest{
		Name: input.Body.Name,
		Slug: input.Body.Slug,
	})
	if err != nil {
		return nil, err
	}
	return &TermOutput{Body: genreResponse(g)}, nil
}

func (s *Server) handleGetGenre(ctx context.Context, input *TermSlugInput) (*TermOutput, error) {
	g, err := s.services.Genres.Get(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return &TermOutput{Body: genreResponse(g)}, nil
}

func (s *Server) handleDeleteGenre(ctx context.Context, input *TermSlugInput) (*struct{}, error) {
	if err := s.services.Genres.Delete(ctx, currentUser(ctx), input.Slug); err != nil {
		return nil, err
	}
	return nil, nil
}
