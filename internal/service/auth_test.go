package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
)

// codeFrom extracts the confirmation code from the last email sent to addr.
func codeFrom(t *testing.T, env *testEnv, addr string) string {
	t.Helper()
	msg, ok := env.mailer.Last(addr)
	require.True(t, ok, "no email sent to %s", addr)
	for _, line := range strings.Split(msg.Body, "\n") {
		line = strings.TrimSpace(line)
		if strings.Count(line, "-") == 2 && !strings.Contains(line, " ") {
			return line
		}
	}
	t.Fatalf("no code in email body: %q", msg.Body)
	return ""
}

func TestAuthService_SignupCreatesUserAndSendsCode(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, SignupRequest{Username: "critic", Email: "Critic@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "critic", resp.Username)
	assert.Equal(t, "critic@example.com", resp.Email)

	u, err := env.store.GetUserByUsername(ctx, "critic")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, codeFrom(t, env, "critic@example.com"), u.ConfirmationCode)
}

func TestAuthService_SignupSamePairResends(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, SignupRequest{Username: "critic", Email: "critic@example.com"})
	require.NoError(t, err)
	first := codeFrom(t, env, "critic@example.com")

	_, err = env.auth.Signup(ctx, SignupRequest{Username: "critic", Email: "critic@example.com"})
	require.NoError(t, err)
	second := codeFrom(t, env, "critic@example.com")

	assert.NotEqual(t, first, second)
	assert.Len(t, env.mailer.Sent(), 2)

	// Only the newest code is accepted.
	_, err = env.auth.Token(ctx, TokenRequest{Username: "critic", ConfirmationCode: first})
	assertFieldErrors(t, err, "confirmation_code")
	_, err = env.auth.Token(ctx, TokenRequest{Username: "critic", ConfirmationCode: second})
	assert.NoError(t, err)
}

func TestAuthService_SignupConflicts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.mustUser(t, "alice", domain.RoleUser)
	env.mustUser(t, "bob", domain.RoleUser)

	tests := []struct {
		name   string
		req    SignupRequest
		fields []string
	}{
		{"username taken", SignupRequest{Username: "alice", Email: "new@example.com"}, []string{"username"}},
		{"email taken", SignupRequest{Username: "carol", Email: "alice@example.com"}, []string{"email"}},
		{"both taken by different users", SignupRequest{Username: "alice", Email: "bob@example.com"}, []string{"username", "email"}},
		{"reserved username", SignupRequest{Username: "me", Email: "me@example.com"}, []string{"username"}},
		{"bad characters", SignupRequest{Username: "bad name!", Email: "x@example.com"}, []string{"username"}},
		{"missing both", SignupRequest{}, []string{"username", "email"}},
		{"invalid email", SignupRequest{Username: "dave", Email: "not-an-email"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tt.req)
			assertFieldErrors(t, err, tt.fields...)
		})
	}
	assert.Empty(t, env.mailer.Sent())
}

func TestAuthService_SignupMailFailureSurfaces(t *testing.T) {
	env := setupTestEnv(t)
	env.mailer.Err = errors.New("relay down")

	_, err := env.auth.Signup(context.Background(), SignupRequest{Username: "critic", Email: "critic@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestAuthService_TokenIssuesVerifiableToken(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, SignupRequest{Username: "critic", Email: "critic@example.com"})
	require.NoError(t, err)

	resp, err := env.auth.Token(ctx, TokenRequest{Username: "critic", ConfirmationCode: codeFrom(t, env, "critic@example.com")})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	u, err := env.auth.VerifyAccessToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "critic", u.Username)

	// The code is not consumed.
	_, err = env.auth.Token(ctx, TokenRequest{Username: "critic", ConfirmationCode: codeFrom(t, env, "critic@example.com")})
	assert.NoError(t, err)
}

func TestAuthService_TokenErrors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, SignupRequest{Username: "critic", Email: "critic@example.com"})
	require.NoError(t, err)
	code := codeFrom(t, env, "critic@example.com")

	_, err = env.auth.Token(ctx, TokenRequest{Username: "nobody", ConfirmationCode: code})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.auth.Token(ctx, TokenRequest{Username: "critic", ConfirmationCode: "garbage"})
	assertFieldErrors(t, err, "confirmation_code")

	_, err = env.auth.Token(ctx, TokenRequest{Username: "critic"})
	assertFieldErrors(t, err, "confirmation_code")

	env.clock.Advance(25 * time.Hour)
	_, err = env.auth.Token(ctx, TokenRequest{Username: "critic", ConfirmationCode: code})
	assertFieldErrors(t, err, "confirmation_code")
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	u := env.mustUser(t, "critic", domain.RoleUser)

	token, err := env.tokens.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = env.auth.VerifyAccessToken(ctx, "v4.local.nonsense")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// Role changes apply to existing tokens.
	u.Role = domain.RoleModerator
	require.NoError(t, env.store.UpdateUser(ctx, u))
	got, err := env.auth.VerifyAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, got.Role)

	require.NoError(t, env.store.DeleteUser(ctx, u.ID))
	_, err = env.auth.VerifyAccessToken(ctx, token)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
