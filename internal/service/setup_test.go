package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb-server/internal/auth"
	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/mail"
	"github.com/yamdb/yamdb-server/internal/store/sqlite"
	"github.com/yamdb/yamdb-server/internal/validation"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// testEnv wires every service against a temporary database.
type testEnv struct {
	store  *sqlite.Store
	mailer *mail.MemoryMailer
	clock  *fakeClock
	tokens *auth.TokenService

	auth       *AuthService
	users      *UserService
	categories *CategoryService
	genres     *GenreService
	titles     *TitleService
	reviews    *ReviewService
	comments   *CommentService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	validator := validation.New(validation.WithClock(clock.Now))

	tokens, err := auth.NewTokenService([]byte(strings.Repeat("s", 32)), time.Hour)
	require.NoError(t, err)
	codes, err := auth.NewCodeGenerator([]byte("code-secret"), 24*time.Hour, clock.Now)
	require.NoError(t, err)
	mailer := mail.NewMemoryMailer()

	reviews := NewReviewService(s, enforcer, validator, logger)
	return &testEnv{
		store:      s,
		mailer:     mailer,
		clock:      clock,
		tokens:     tokens,
		auth:       NewAuthService(s, tokens, codes, mailer, validator, logger),
		users:      NewUserService(s, enforcer, validator, logger),
		categories: NewCategoryService(s, enforcer, validator, logger),
		genres:     NewGenreService(s, enforcer, validator, logger),
		titles:     NewTitleService(s, enforcer, validator, logger),
		reviews:    reviews,
		comments:   NewCommentService(s, reviews, enforcer, validator, logger),
	}
}

func (e *testEnv) mustUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) mustSuperuser(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", Role: domain.RoleUser, IsSuperuser: true}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

// mustCatalog creates the "films" category and the "drama" and "comedy" genres.
func (e *testEnv) mustCatalog(t *testing.T, admin *domain.User) {
	t.Helper()
	ctx := context.Background()
	_, err := e.categories.Create(ctx, admin, TermRequest{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	for _, slug := range []string{"drama", "comedy"} {
		_, err := e.genres.Create(ctx, admin, TermRequest{Name: strings.ToUpper(slug[:1]) + slug[1:], Slug: slug})
		require.NoError(t, err)
	}
}

func (e *testEnv) mustTitle(t *testing.T, admin *domain.User, name string, year int) *domain.Title {
	t.Helper()
	title, err := e.titles.Create(context.Background(), admin, CreateTitleRequest{
		Name:     name,
		Year:     year,
		Genre:    []string{"drama"},
		Category: "films",
	})
	require.NoError(t, err)
	return title
}

func (e *testEnv) mustReview(t *testing.T, author *domain.User, titleID int64, score int) *domain.Review {
	t.Helper()
	r, err := e.reviews.Create(context.Background(), author, titleID, CreateReviewRequest{Text: "review by " + author.Username, Score: score})
	require.NoError(t, err)
	return r
}

// assertFieldErrors checks that err is a validation error naming exactly fields.
func assertFieldErrors(t *testing.T, err error, fields ...string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.ElementsMatch(t, fields, domainErr.Fields().Names())
}
