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

const commentsPath = "/api/v1/titles/{title_id}/reviews/{review_id}/comments"

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listComments",
		Method:      http.MethodGet,
		Path:        commentsPath,
		Summary:     "List comments",
		Description: "Returns the comments of a review ordered by publication date",
		Tags:        []string{"Comments"},
	}, s.handleListComments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createComment",
		Method:        http.MethodPost,
		Path:          commentsPath,
		Summary:       "Create comment",
		Description:   "Comments on a review",
		Tags:          []string{"Comments"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "getComment",
		Method:      http.MethodGet,
		Path:        commentsPath + "/{comment_id}",
		Summary:     "Get comment",
		Description: "Returns a comment on a review",
		Tags:        []string{"Comments"},
	}, s.handleGetComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPatch,
		Path:        commentsPath + "/{comment_id}",
		Summary:     "Update comment",
		Description: "Replaces the text of a comment. Allowed for its author, moderators and admins.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteComment",
		Method:        http.MethodDelete,
		Path:          commentsPath + "/{comment_id}",
		Summary:       "Delete comment",
		Description:   "Deletes a comment. Allowed for its author, moderators and admins.",
		Tags:          []string{"Comments"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteComment)
}

// === DTOs ===

// CommentResponse contains comment data in API responses.
type CommentResponse struct {
	ID      int64     `json:"id" doc:"Comment ID"`
	Text    string    `json:"text" doc:"Comment text"`
	Author  string    `json:"author" doc:"Author username"`
	Review  string    `json:"review" doc:"Text of the review commented on"`
	PubDate time.Time `json:"pub_date" doc:"Publication time"`
}

// ListCommentsInput contains parameters for listing comments.
type ListCommentsInput struct {
	PageParams
	TitleID  int64  `path:"title_id" doc:"Title ID"`
	ReviewID int64  `path:"review_id" doc:"Review ID"`
	Text     string `query:"text" doc:"Case-insensitive substring of the text"`
}

// ListCommentsOutput wraps a page of comments for Huma.
type ListCommentsOutput struct {
	Body Page[CommentResponse]
}

// CommentRequest is the request body for creating a comment.
type CommentRequest struct {
	Text string `json:"text,omitempty" doc:"Comment text"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Text *string `json:"text,omitempty" doc:"Comment text"`
}

// CreateCommentInput wraps the create comment request for Huma.
type CreateCommentInput struct {
	TitleID  int64 `path:"title_id" doc:"Title ID"`
	ReviewID int64 `path:"review_id" doc:"Review ID"`
	Body     CommentRequest
}

// UpdateCommentInput wraps the update comment request for Huma.
type UpdateCommentInput struct {
	TitleID   int64 `path:"title_id" doc:"Title ID"`
	ReviewID  int64 `path:"review_id" doc:"Review ID"`
	CommentID int64 `path:"comment_id" doc:"Comment ID"`
	Body      UpdateCommentRequest
}

// CommentIDInput addresses a comment.
type CommentIDInput struct {
	TitleID   int64 `path:"title_id" doc:"Title ID"`
	ReviewID  int64 `path:"review_id" doc:"Review ID"`
	CommentID int64 `path:"comment_id" doc:"Comment ID"`
}

// CommentOutput wraps the comment response for Huma.
type CommentOutput struct {
	Body CommentResponse
}

func commentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.AuthorUsername,
		Review:  c.ReviewText,
		PubDate: c.PubDate,
	}
}

// === Handlers ===

func (s *Server) handleListComments(ctx context.Context, input *ListCommentsInput) (*ListCommentsOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Comments.List(ctx, input.TitleID, input.ReviewID, store.CommentFilter{Text: input.Text}, page)
	if err != nil {
		return nil, err
	}
	return &ListCommentsOutput{Body: newPage(ctx, res, page, commentResponse)}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	c, err := s.services.Comments.Create(ctx, currentUser(ctx), input.TitleID, input.ReviewID, service.CommentRequest{
		Text: input.Body.Text,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: commentResponse(c)}, nil
}

func (s *Server) handleGetComment(ctx context.Context, input *CommentIDInput) (*CommentOutput, error) {
	c, err := s.services.Comments.Get(ctx, input.TitleID, input.ReviewID, input.CommentID)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: commentResponse(c)}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	c, err := s.services.Comments.Update(ctx, currentUser(ctx), input.TitleID, input.ReviewID, input.CommentID, service.UpdateCommentRequest{
		Text: input.Body.Text,
	})
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: commentResponse(c)}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*struct{}, error) {
	if err := s.services.Comments.Delete(ctx, currentUser(ctx), input.TitleID, input.ReviewID, input.CommentID); err != nil {
		return nil, err
	}
	return nil, nil
}
