// Package store defines the persistence contract of the service. The SQLite
// implementation lives in store/sqlite.
package store

import (
	"context"

	"github.com/yamdb/yamdb-server/internal/domain"
)

// TitleFilter narrows a title listing. Zero values do not filter.
type TitleFilter struct {
	Category string // category slug
	Genre    string // genre slug
	Name     string // case-insensitive substring
	Year     int
}

// ReviewFilter narrows a review listing.
type ReviewFilter struct {
	Score int
}

// CommentFilter narrows a comment listing.
type CommentFilter struct {
	Text string // case-insensitive substring
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context, search string, page Page) (Result[domain.Category], error)
	DeleteCategory(ctx context.Context, slug string) error
}

// GenreStore persists genres.
type GenreStore interface {
	CreateGenre(ctx context.Context, g *domain.Genre) error
	GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error)
	ListGenres(ctx context.Context, search string, page Page) (Result[domain.Genre], error)
	DeleteGenre(ctx context.Context, slug string) error
}

// TitleStore persists titles. Reads always carry the category, the genres and the
// current rating.
type TitleStore interface {
	CreateTitle(ctx context.Context, t *domain.Title) error
	GetTitle(ctx context.Context, id int64) (*domain.Title, error)
	ListTitles(ctx context.Context, f TitleFilter, page Page) (Result[domain.Title], error)
	UpdateTitle(ctx context.Context, t *domain.Title) error
	DeleteTitle(ctx context.Context, id int64) error
	CountTitles(ctx context.Context) (int, error)
}

// ReviewStore persists reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *domain.Review) error
	// GetReview returns the review only if it belongs to titleID.
	GetReview(ctx context.Context, titleID, reviewID int64) (*domain.Review, error)
	ListReviews(ctx context.Context, titleID int64, f ReviewFilter, page Page) (Result[domain.Review], error)
	UpdateReview(ctx context.Context, r *domain.Review) error
	DeleteReview(ctx context.Context, id int64) error
	HasReview(ctx context.Context, titleID, authorID int64) (bool, error)
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c *domain.Comment) error
	// GetComment returns the comment only if it belongs to reviewID.
	GetComment(ctx context.Context, reviewID, commentID int64) (*domain.Comment, error)
	ListComments(ctx context.Context, reviewID int64, f CommentFilter, page Page) (Result[domain.Comment], error)
	UpdateComment(ctx context.Context, c *domain.Comment) error
	DeleteComment(ctx context.Context, id int64) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, search string, page Page) (Result[domain.User], error)
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, id int64) error
	SetConfirmationCode(ctx context.Context, userID int64, code string) error
}

// Store is the full persistence contract.
type Store interface {
	CategoryStore
	GenreStore
	TitleStore
	ReviewStore
	CommentStore
	UserStore
	Ping(ctx context.Context) error
	Close() error
}

// SearchIndexer keeps the title search index in step with title writes.
type SearchIndexer interface {
	IndexTitle(ctx context.Context, t *domain.Title) error
	DeleteTitle(ctx context.Context, id int64) error
}

// NoopSearchIndexer is used until a real index is attached.
type NoopSearchIndexer struct{}

// NewNoopSearchIndexer returns an indexer that does nothing.
func NewNoopSearchIndexer() *NoopSearchIndexer { return &NoopSearchIndexer{} }

// IndexTitle implements SearchIndexer.
func (NoopSearchIndexer) IndexTitle(context.Context, *domain.Title) error { return nil }

// DeleteTitle implements SearchIndexer.
func (NoopSearchIndexer) DeleteTitle(context.Context, int64) error { return nil }
