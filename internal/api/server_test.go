package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb-server/internal/auth"
	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/mail"
	"github.com/yamdb/yamdb-server/internal/service"
	"github.com/yamdb/yamdb-server/internal/store/sqlite"
	"github.com/yamdb/yamdb-server/internal/validation"
)

// testServer is a fully wired server over a temporary database.
type testServer struct {
	api    humatest.TestAPI
	server *Server
	store  *sqlite.Store
	mailer *mail.MemoryMailer
	tokens *auth.TokenService
}

// setupTestServer creates a test server with all dependencies.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, DefaultOptions())
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	validator := validation.New()

	tokens, err := auth.NewTokenService([]byte(strings.Repeat("k", 32)), time.Hour)
	require.NoError(t, err)
	codes, err := auth.NewCodeGenerator([]byte("test-code-secret"), time.Hour, time.Now)
	require.NoError(t, err)
	mailer := mail.NewMemoryMailer()

	reviews := service.NewReviewService(st, enforcer, validator, logger)
	services := &Services{
		Auth:       service.NewAuthService(st, tokens, codes, mailer, validator, logger),
		Users:      service.NewUserService(st, enforcer, validator, logger),
		Categories: service.NewCategoryService(st, enforcer, validator, logger),
		Genres:     service.NewGenreService(st, enforcer, validator, logger),
		Titles:     service.NewTitleService(st, enforcer, validator, logger),
		Reviews:    reviews,
		Comments:   service.NewCommentService(st, reviews, enforcer, validator, logger),
		Search:     service.NewSearchService(nil, st, logger),
	}

	server := NewServer(st, services, opts, logger)
	t.Cleanup(server.Close)

	return &testServer{
		api:    humatest.Wrap(t, server.API()),
		server: server,
		store:  st,
		mailer: mailer,
		tokens: tokens,
	}
}

// mustUser creates an account directly in the store.
func (ts *testServer) mustUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, ts.store.CreateUser(context.Background(), u))
	return u
}

// bearer returns an Authorization header line for u.
func (ts *testServer) bearer(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := ts.tokens.GenerateAccessToken(u)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

// mustCatalog creates the "films" category and the "drama" genre and returns an admin.
func (ts *testServer) mustCatalog(t *testing.T) *domain.User {
	t.Helper()
	admin := ts.mustUser(t, "boss", domain.RoleAdmin)
	resp := ts.api.Post("/api/v1/categories", ts.bearer(t, admin), map[string]any{"name": "Films", "slug": "films"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	resp = ts.api.Post("/api/v1/genres", ts.bearer(t, admin), map[string]any{"name": "Drama", "slug": "drama"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return admin
}

// mustTitle creates a title through the API and returns its id.
func (ts *testServer) mustTitle(t *testing.T, admin *domain.User, name string, year int) int64 {
	t.Helper()
	resp := ts.api.Post("/api/v1/titles", ts.bearer(t, admin), map[string]any{
		"name":     name,
		"year":     year,
		"genre":    []string{"drama"},
		"category": "films",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[TitleResponse](t, resp).ID
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

func assertError(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	require.Equal(t, status, resp.Code, resp.Body.String())
	body := decode[errorBody](t, resp)
	assert.Equal(t, code, body.Code)
	return body
}

func TestServer_NotFoundRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nothing-here")
	assertError(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/categories", map[string]any{"name": "x"})
	assertError(t, resp, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestServer_TrailingSlash(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/categories/")
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestServer_InvalidTokenIsAnonymous(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/titles", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/categories", "Authorization: Bearer not-a-token", map[string]any{"name": "Books"})
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestServer_DeletedUserTokenIsAnonymous(t *testing.T) {
	ts := setupTestServer(t)
	u := ts.mustUser(t, "ghost", domain.RoleUser)
	header := ts.bearer(t, u)
	require.NoError(t, ts.store.DeleteUser(context.Background(), u.ID))

	resp := ts.api.Get("/api/v1/users/me", header)
	assertError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestServer_OpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/api/v1/titles/{title_id}/reviews")
}

func TestServer_Metrics(t *testing.T) {
	ts := setupTestServer(t)
	ts.api.Get("/api/v1/genres")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "yamdb_")
}
