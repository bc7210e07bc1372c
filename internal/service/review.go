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
	"github.com/yamdb/yamdb-server/internal/validation"
)

const errDuplicateReview = "you have already reviewed this title"

// CreateReviewRequest is the payload for a new review.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"gte=1,lte=10"`
}

// UpdateReviewRequest is a partial review update.
type UpdateReviewRequest struct {
	Text  *string `json:"text" validate:"omitempty,notblank"`
	Score *int    `json:"score" validate:"omitempty,gte=1,lte=10"`
}

// ReviewService manages reviews nested under titles.
//
// Reads are public. Any signed-in user may review a title once. Authors edit
// their own reviews, moderators and admins edit anyone's.
type ReviewService struct {
	store     store.Store
	enforcer  *authz.Enforcer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, enforcer *authz.Enforcer, validator *validation.Validator, logger *slog.Logger) *ReviewService {
	return &ReviewService{store: store, enforcer: enforcer, validator: validator, logger: logger}
}

func (s *ReviewService) requireTitle(ctx context.Context, titleID int64) error {
	if _, err := s.store.GetTitle(ctx, titleID); err != nil {
		return notFound(err, "title not found")
	}
	return nil
}

// List returns a title's reviews ordered by publication date.
func (s *ReviewService) List(ctx context.Context, titleID int64, f store.ReviewFilter, page store.Page) (store.Result[domain.Review], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return store.Result[domain.Review]{}, err
	}
	return s.store.ListReviews(ctx, titleID, f, page)
}

// Get returns a review that belongs to titleID.
func (s *ReviewService) Get(ctx context.Context, titleID, reviewID int64) (*domain.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	r, err := s.store.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(err, "review not found")
	}
	return r, nil
}

// Create adds the actor's review of a title.
func (s *ReviewService) Create(ctx context.Context, actor *domain.User, titleID int64, req CreateReviewRequest) (*domain.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := authorize(s.enforcer, actor, authz.ResourceReview, authz.ActionCreate, 0); err != nil {
		return nil, err
	}

	req.Text = strings.TrimSpace(req.Text)
	fields := s.validator.Fields(req)
	exists, err := s.store.HasReview(ctx, titleID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		fields = fields.Add("non_field_errors", errDuplicateReview)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	r := &domain.Review{TitleID: &titleID, AuthorID: actor.ID, Text: req.Text, Score: req.Score}
	if err := s.store.CreateReview(ctx, r); err != nil {
		// Lost a race with a concurrent request from the same author.
		if _, ok := uniqueViolation(err); ok {
			return nil, domainerrors.FieldErrors{}.Add("non_field_errors", errDuplicateReview).Err()
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info("review created", "review_id", r.ID, "title_id", titleID, "author", actor.Username)
	return r, nil
}

// Update applies a partial update to a review.
func (s *ReviewService) Update(ctx context.Context, actor *domain.User, titleID, reviewID int64, req UpdateReviewRequest) (*domain.Review, error) {
	r, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := authorize(s.enforcer, actor, authz.ResourceReview, authz.ActionUpdate, r.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		trimmed := strings.TrimSpace(*req.Text)
		req.Text = &trimmed
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Text != nil {
		r.Text = *req.Text
	}
	if req.Score != nil {
		r.Score = *req.Score
	}

	if err := s.store.UpdateReview(ctx, r); err != nil {
		return nil, notFound(err, "review not found")
	}
	s.logger.Info("review updated", "review_id", r.ID, "by", actor.Username)
	return r, nil
}

// Delete removes a review and its comments.
func (s *ReviewService) Delete(ctx context.Context, actor *domain.User, titleID, reviewID int64) error {
	r, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := authorize(s.enforcer, actor, authz.ResourceReview, authz.ActionDelete, r.AuthorID); err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, r.ID); err != nil {
		return notFound(err, "review not found")
	}
	s.logger.Info("review deleted", "review_id", r.ID, "by", actor.Username)
	return nil
}
