package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_AdminOnly(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.mustUser(t, "reader", domain.RoleUser)
	moderator := env.mustUser(t, "mod", domain.RoleModerator)

	_, err := env.users.List(ctx, nil, "", store.Page{Limit: 10})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	_, err = env.users.List(ctx, user, "", store.Page{Limit: 10})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = env.users.Get(ctx, moderator, "reader")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	root := env.mustSuperuser(t, "root")
	res, err := env.users.List(ctx, root, "rea", store.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "reader", res.Items[0].Username)
}

func TestUserService_CreateAndConflicts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.mustUser(t, "boss", domain.RoleAdmin)

	u, err := env.users.Create(ctx, admin, CreateUserRequest{Username: "newbie", Email: "NewBie@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, "newbie@example.com", u.Email)

	_, err = env.users.Create(ctx, admin, CreateUserRequest{Username: "newbie", Email: "boss@example.com"})
	assertFieldErrors(t, err, "username", "email")

	_, err = env.users.Create(ctx, admin, CreateUserRequest{Username: "x", Email: "x@example.com", Role: "overlord"})
	assertFieldErrors(t, err, "role")
}

func TestUserService_UpdateRoleAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.mustUser(t, "boss", domain.RoleAdmin)
	env.mustUser(t, "reader", domain.RoleUser)

	u, err := env.users.Update(ctx, admin, "reader", UpdateUserRequest{Role: ptr(domain.RoleModerator), Bio: ptr("promoted")})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, u.Role)
	assert.Equal(t, "promoted", u.Bio)

	_, err = env.users.Update(ctx, admin, "ghost", UpdateUserRequest{Bio: ptr("x")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, env.users.Delete(ctx, admin, "reader"))
	_, err = env.users.Get(ctx, admin, "reader")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUserService_UpdateMe(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	user := env.mustUser(t, "reader", domain.RoleUser)
	moderator := env.mustUser(t, "mod", domain.RoleModerator)
	env.mustUser(t, "taken", domain.RoleUser)

	_, err := env.users.Me(ctx, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	me, err := env.users.UpdateMe(ctx, user, UpdateUserRequest{FirstName: ptr("Rea"), Bio: ptr("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Rea", me.FirstName)
	assert.Equal(t, "reader", me.Username)

	_, err = env.users.UpdateMe(ctx, user, UpdateUserRequest{Role: ptr(domain.RoleAdmin)})
	assertFieldErrors(t, err, "role")

	_, err = env.users.UpdateMe(ctx, user, UpdateUserRequest{Username: ptr("taken")})
	assertFieldErrors(t, err, "username")

	// Keeping one's own username is not a conflict.
	_, err = env.users.UpdateMe(ctx, user, UpdateUserRequest{Username: ptr("reader"), Email: ptr("reader@example.com")})
	assert.NoError(t, err)

	got, err := env.users.UpdateMe(ctx, moderator, UpdateUserRequest{Role: ptr(domain.RoleAdmin), Bio: ptr("still a mod")})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, got.Role, "role is ignored on /me")
	assert.Equal(t, "still a mod", got.Bio)
}

func TestUserService_CreateSuperuser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	root, err := env.users.CreateSuperuser(ctx, " root ", "Root@Example.com")
	require.NoError(t, err)
	assert.True(t, root.IsSuperuser)
	assert.Equal(t, domain.RoleAdmin, root.Role)
	assert.Equal(t, "root@example.com", root.Email)

	stored, err := env.store.GetUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, stored.IsSuperuser)

	_, err = env.users.CreateSuperuser(ctx, "root", "other@example.com")
	assertFieldErrors(t, err, "username")

	_, err = env.users.CreateSuperuser(ctx, "me", "not-an-email")
	assertFieldErrors(t, err, "username", "email")
}
