package api

import (
	"github.com/yamdb/yamdb-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Categories *service.CategoryService
	Genres     *service.GenreService
	Titles     *service.TitleService
	Reviews    *service.ReviewService
	Comments   *service.CommentService
	Search     *service.SearchService // title full-text search, may run without an index
}
