package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
)

func newEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer()
	require.NoError(t, err)
	return e
}

var (
	anon      = Anonymous()
	user      = Subject{UserID: 1, Role: "user"}
	other     = Subject{UserID: 2, Role: "user"}
	moderator = Subject{UserID: 3, Role: "moderator"}
	admin     = Subject{UserID: 4, Role: "admin"}
	superuser = Subject{UserID: 5, Role: "superuser"}
)

func TestDecide_Table(t *testing.T) {
	e := newEnforcer(t)

	tests := []struct {
		name  string
		sub   Subject
		res   Resource
		act   Action
		owner int64
		want  bool
	}{
		// Read-only-or-admin
		{"anon reads titles", anon, ResourceTitle, ActionRead, 0, true},
		{"anon cannot create titles", anon, ResourceTitle, ActionCreate, 0, false},
		{"user cannot create genres", user, ResourceGenre, ActionCreate, 0, false},
		{"moderator cannot delete categories", moderator, ResourceCategory, ActionDelete, 0, false},
		{"admin creates categories", admin, ResourceCategory, ActionCreate, 0, true},
		{"superuser updates titles", superuser, ResourceTitle, ActionUpdate, 0, true},

		// Admin-only
		{"user cannot list users", user, ResourceUser, ActionRead, 0, false},
		{"moderator cannot list users", moderator, ResourceUser, ActionRead, 0, false},
		{"admin lists users", admin, ResourceUser, ActionRead, 0, true},
		{"superuser deletes users", superuser, ResourceUser, ActionDelete, 0, true},

		// Author-or-privileged-or-read-only
		{"anon reads reviews", anon, ResourceReview, ActionRead, 1, true},
		{"anon cannot create reviews", anon, ResourceReview, ActionCreate, 0, false},
		{"user creates reviews", user, ResourceReview, ActionCreate, 0, true},
		{"author updates own review", user, ResourceReview, ActionUpdate, 1, true},
		{"non-author cannot update review", other, ResourceReview, ActionUpdate, 1, false},
		{"non-author cannot delete comment", other, ResourceComment, ActionDelete, 1, false},
		{"moderator updates any review", moderator, ResourceReview, ActionUpdate, 1, true},
		{"moderator deletes any comment", moderator, ResourceComment, ActionDelete, 1, true},
		{"admin deletes any review", admin, ResourceReview, ActionDelete, 1, true},

		// Profile
		{"user updates own profile", user, ResourceProfile, ActionUpdate, 0, true},
		{"anon cannot read profile", anon, ResourceProfile, ActionRead, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Decide(tt.sub, tt.res, tt.act, tt.owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_AnonymousNeverOwns(t *testing.T) {
	e := newEnforcer(t)
	// An anonymous subject with a zero ID must not match objects owned by user 0.
	got, err := e.Decide(anon, ResourceReview, ActionDelete, 0)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestAuthorize_ErrorKinds(t *testing.T) {
	e := newEnforcer(t)

	assert.NoError(t, e.Authorize(admin, ResourceGenre, ActionDelete, 0))
	assert.ErrorIs(t, e.Authorize(anon, ResourceGenre, ActionDelete, 0), domainerrors.ErrUnauthorized)
	assert.ErrorIs(t, e.Authorize(user, ResourceGenre, ActionDelete, 0), domainerrors.ErrForbidden)
}

func TestSubjectOf(t *testing.T) {
	assert.Equal(t, Anonymous(), SubjectOf(nil))
	assert.Equal(t, Subject{UserID: 9, Role: "superuser"}, SubjectOf(&domain.User{ID: 9, Role: domain.RoleUser, IsSuperuser: true}))
	assert.Equal(t, Subject{UserID: 3, Role: "moderator"}, SubjectOf(&domain.User{ID: 3, Role: domain.RoleModerator}))
}
