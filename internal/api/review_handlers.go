package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/service"
	"github.com/yamdb/yamdb-server/internal/store"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles/{title_id}/reviews",
		Summary:     "List reviews",
		Description: "Returns the reviews of a title ordered by publication date",
		Tags:        []string{"Reviews"},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/titles/{title_id}/reviews",
		Summary:       "Create review",
		Description:   "Reviews a title. Each user may review a title once.",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReview",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles/{title_id}/reviews/{review_id}",
		Summary:     "Get review",
		Description: "Returns a review of a title",
		Tags:        []string{"Reviews"},
	}, s.handleGetReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/titles/{title_id}/reviews/{review_id}",
		Summary:     "Update review",
		Description: "Partially updates a review. Allowed for its author, moderators and admins.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteReview",
		Method:        http.MethodDelete,
		Path:          "/api/v1/titles/{title_id}/reviews/{review_id}",
		Summary:       "Delete review",
		Description:   "Deletes a review and its comments. Allowed for its author, moderators and admins.",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReview)
}

// === DTOs ===

// ReviewResponse contains review data in API responses.
type ReviewResponse struct {
	ID      int64     `json:"id" doc:"Review ID"`
	Text    string    `json:"text" doc:"Review text"`
	Author  string    `json:"author" doc:"Author username"`
	Title   *string   `json:"title" doc:"Reviewed title name, null once the title is deleted"`
	Score   int       `json:"score" doc:"Score from 1 to 10"`
	PubDate time.Time `json:"pub_date" doc:"Publication time"`
}

// ListReviewsInput contains parameters for listing reviews.
type ListReviewsInput struct {
	PageParams
	TitleID int64 `path:"title_id" doc:"Title ID"`
	Score   int   `query:"score" doc:"Exact score"`
}

// ListReviewsOutput wraps a page of reviews for Huma.
type ListReviewsOutput struct {
	Body Page[ReviewResponse]
}

// CreateReviewRequest is the request body for creating a review.
type CreateReviewRequest struct {
	Text  string `json:"text,omitempty" doc:"Review text"`
	Score int    `json:"score,omitempty" doc:"Score from 1 to 10"`
}

// CreateReviewInput wraps the create review request for Huma.
type CreateReviewInput struct {
	TitleID int64 `path:"title_id" doc:"Title ID"`
	Body    CreateReviewRequest
}

// UpdateReviewRequest is the request body for updating a review.
type UpdateReviewRequest struct {
	Text  *string `json:"text,omitempty" doc:"Review text"`
	Score *int    `json:"score,omitempty" doc:"Score from 1 to 10"`
}

// UpdateReviewInput wraps the update review request for Huma.
type UpdateReviewInput struct {
	TitleID  int64 `path:"title_id" doc:"Title ID"`
	ReviewID int64 `path:"review_id" doc:"Review ID"`
	Body     UpdateReviewRequest
}

// ReviewIDInput addresses a review of a title.
type ReviewIDInput struct {
	TitleID  int64 `path:"title_id" doc:"Title ID"`
	ReviewID int64 `path:"review_id" doc:"Review ID"`
}

// ReviewOutput wraps the review response for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

func reviewResponse(r *domain.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.AuthorUsername,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
	if r.TitleID != nil {
		name := r.TitleName
		resp.Title = &name
	}
	return resp
}

// === Handlers ===

func (s *Server) handleListReviews(ctx context.Context, input *ListReviewsInput) (*ListReviewsOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Reviews.List(ctx, input.TitleID, store.ReviewFilter{Score: input.Score}, page)
	if err != nil {
		return nil, err
	}
	return &ListReviewsOutput{Body: newPage(ctx, res, page, reviewResponse)}, nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	r, err := s.services.Reviews.Create(ctx, currentUser(ctx), input.TitleID, service.CreateReviewRequest{
		Text:  input.Body.Text,
		Score: input.Body.Score,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: reviewResponse(r)}, nil
}

func (s *Server) handleGetReview(ctx context.Context, input *ReviewIDInput) (*ReviewOutput, error) {
	r, err := s.services.Reviews.Get(ctx, input.TitleID, input.ReviewID)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: reviewResponse(r)}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	r, err := s.services.Reviews.Update(ctx, currentUser(ctx), input.TitleID, input.ReviewID, service.UpdateReviewRequest{
		Text:  input.Body.Text,
		Score: input.Body.Score,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: reviewResponse(r)}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*struct{}, error) {
	if err := s.services.Reviews.Delete(ctx, currentUser(ctx), input.TitleID, input.ReviewID); err != nil {
		return nil, err
	}
	return nil, nil
}
