package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/service"
	"github.com/yamdb/yamdb-server/internal/store"
)

func (s *Server) registerTitleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTitles",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles",
		Summary:     "List titles",
		Description: "Returns titles with their average review score, filtered by category, genre, name or year",
		Tags:        []string{"Titles"},
	}, s.handleListTitles)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTitle",
		Method:        http.MethodPost,
		Path:          "/api/v1/titles",
		Summary:       "Create title",
		Description:   "Creates a title. Category and genres are referenced by slug. Admin only.",
		Tags:          []string{"Titles"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateTitle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTitle",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles/{title_id}",
		Summary:     "Get title",
		Description: "Returns a title with its average review score",
		Tags:        []string{"Titles"},
	}, s.handleGetTitle)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTitle",
		Method:      http.MethodPatch,
		Path:        "/api/v1/titles/{title_id}",
		Summary:     "Update title",
		Description: "Partially updates a title. Admin only.",
		Tags:        []string{"Titles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTitle)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTitle",
		Method:        http.MethodDelete,
		Path:          "/api/v1/titles/{title_id}",
		Summary:       "Delete title",
		Description:   "Deletes a title. Its reviews are kept. Admin only.",
		Tags:          []string{"Titles"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTitle)
}

// === DTOs ===

// TitleResponse contains title data in API responses.
type TitleResponse struct {
	ID          int64          `json:"id" doc:"Title ID"`
	Name        string         `json:"name" doc:"Title name"`
	Year        int            `json:"year" doc:"Release year"`
	Rating      *float64       `json:"rating" doc:"Average review score, null without reviews"`
	Description string         `json:"description" doc:"Description"`
	Genre       []TermResponse `json:"genre" doc:"Genres"`
	Category    *TermResponse  `json:"category" doc:"Category, null once the category is deleted"`
}

// ListTitlesInput contains parameters for listing titles.
type ListTitlesInput struct {
	PageParams
	Category string `query:"category" doc:"Category slug"`
	Genre    string `query:"genre" doc:"Genre slug"`
	Name     string `query:"name" doc:"Case-insensitive substring of the name"`
	Year     int    `query:"year" doc:"Exact release year"`
}

// ListTitlesOutput wraps a page of titles for Huma.
type ListTitlesOutput struct {
	Body Page[TitleResponse]
}

// CreateTitleRequest is the request body for creating a title.
type CreateTitleRequest struct {
	Name        string   `json:"name,omitempty" doc:"Title name"`
	Year        int      `json:"year,omitempty" doc:"Release year, not in the future"`
	Description string   `json:"description,omitempty" doc:"Description"`
	Genre       []string `json:"genre,omitempty" doc:"Genre slugs"`
	Category    string   `json:"category,omitempty" doc:"Category slug"`
}

// CreateTitleInput wraps the create title request for Huma.
type CreateTitleInput struct {
	Body CreateTitleRequest
}

// UpdateTitleRequest is the request body for updating a title.
type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" doc:"Title name"`
	Year        *int      `json:"year,omitempty" doc:"Release year, not in the future"`
	Description *string   `json:"description,omitempty" doc:"Description"`
	Genre       *[]string `json:"genre,omitempty" doc:"Genre slugs, replacing the current set"`
	Category    *string   `json:"category,omitempty" doc:"Category slug"`
}

// UpdateTitleInput wraps the update title request for Huma.
type UpdateTitleInput struct {
	TitleID int64 `path:"title_id" doc:"Title ID"`
	Body    UpdateTitleRequest
}

// TitleIDInput addresses a title.
type TitleIDInput struct {
	TitleID int64 `path:"title_id" doc:"Title ID"`
}

// TitleOutput wraps the title response for Huma.
type TitleOutput struct {
	Body TitleResponse
}

func titleResponse(t *domain.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]TermResponse, len(t.Genres)),
	}
	for i := range t.Genres {
		resp.Genre[i] = genreResponse(&t.Genres[i])
	}
	if t.Category != nil {
		c := categoryResponse(t.Category)
		resp.Category = &c
	}
	return resp
}

// === Handlers ===

func (s *Server) handleListTitles(ctx context.Context, input *ListTitlesInput) (*ListTitlesOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Titles.List(ctx, store.TitleFilter{
		Category: input.Category,
		Genre:    input.Genre,
		Name:     input.Name,
		Year:     input.Year,
	}, page)
	if err != nil {
		return nil, err
	}
	return &ListTitlesOutput{Body: newPage(ctx, res, page, titleResponse)}, nil
}

func (s *Server) handleCreateTitle(ctx context.Context, input *CreateTitleInput) (*TitleOutput, error) {
	t, err := s.services.Titles.Create(ctx, currentUser(ctx), service.CreateTitleRequest{
		Name:        input.Body.Name,
		Year:        input.Body.Year,
		Description: input.Body.Description,
		Genre:       input.Body.Genre,
		Category:    input.Body.Category,
	})
	if err != nil {
		return nil, err
	}
	return &TitleOutput{Body: titleResponse(t)}, nil
}

func (s *Server) handleGetTitle(ctx context.Context, input *TitleIDInput) (*TitleOutput, error) {
	t, err := s.services.Titles.Get(ctx, input.TitleID)
	if err != nil {
		return nil, err
	}
	return &TitleOutput{Body: titleResponse(t)}, nil
}

func (s *Server) handleUpdateTitle(ctx context.Context, input *UpdateTitleInput) (*TitleOutput, error) {
	t, err := s.services.Titles.Update(ctx, currentUser(ctx), input.TitleID, service.UpdateTitleRequest{
		Name:        input.Body.Name,
		Year:        input.Body.Year,
		Description: input.Body.Description,
		Genre:       input.Body.Genre,
		Category:    input.Body.Category,
	})
	if err != nil {
		return nil, err
	}
	return &TitleOutput{Body: titleResponse(t)}, nil
}

func (s *Server) handleDeleteTitle(ctx context.Context, input *TitleIDInput) (*struct{}, error) {
	if err := s.services.Titles.Delete(ctx, currentUser(ctx), input.TitleID); err != nil {
		return nil, err
	}
	return nil, nil
}
