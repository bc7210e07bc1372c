package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/store"
	"github.com/yamdb/yamdb-server/internal/validation"
)

// CommentRequest is the payload for a new comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// UpdateCommentRequest is a partial update. A nil Text leaves the comment unchanged.
type UpdateCommentRequest struct {
	Text *string `json:"text" validate:"omitempty,notblank"`
}

// CommentService manages comments nested under reviews. Permissions follow reviews.
type CommentService struct {
	store     store.Store
	reviews   *ReviewService
	enforcer  *authz.Enforcer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(store store.Store, reviews *ReviewService, enforcer *authz.Enforcer, validator *validation.Validator, logger *slog.Logger) *CommentService {
	return &CommentService{store: store, reviews: reviews, enforcer: enforcer, validator: validator, logger: logger}
}

// List returns a review's comments ordered by publication date.
func (s *CommentService) List(ctx context.Context, titleID, reviewID int64, f store.CommentFilter, page store.Page) (store.Result[domain.Comment], error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return store.Result[domain.Comment]{}, err
	}
	return s.store.ListComments(ctx, reviewID, f, page)
}

// Get returns a comment under the given title and review.
func (s *CommentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*domain.Comment, error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	c, err := s.store.GetComment(ctx, reviewID, commentID)
	if err != nil {
		return nil, notFound(err, "comment not found")
	}
	return c, nil
}

// Create adds a comment by actor.
func (s *CommentService) Create(ctx context.Context, actor *domain.User, titleID, reviewID int64, req CommentRequest) (*domain.Comment, error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := authorize(s.enforcer, actor, authz.ResourceComment, authz.ActionCreate, 0); err != nil {
		return nil, err
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	c := &domain.Comment{ReviewID: reviewID, AuthorID: actor.ID, Text: req.Text}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.logger.Info("comment created", "comment_id", c.ID, "review_id", reviewID, "author", actor.Username)
	return c, nil
}

// Update changes a comment's text.
func (s *CommentService) Update(ctx context.Context, actor *domain.User, titleID, reviewID, commentID int64, req UpdateCommentRequest) (*domain.Comment, error) {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(s.enforcer, actor, authz.ResourceComment, authz.ActionUpdate, c.AuthorID); err != nil {
		return nil, err
	}
	if req.Text == nil {
		return c, nil
	}
	trimmed := strings.TrimSpace(*req.Text)
	req.Text = &trimmed
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	c.Text = trimmed
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, notFound(err, "comment not found")
	}
	s.logger.Info("comment updated", "comment_id", c.ID, "by", actor.Username)
	return c, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, titleID, reviewID, commentID int64) error {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := authorize(s.enforcer, actor, authz.ResourceComment, authz.ActionDelete, c.AuthorID); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, c.ID); err != nil {
		return notFound(err, "comment not found")
	}
	s.logger.Info("comment deleted", "comment_id", c.ID, "by", actor.Username)
	return nil
}
