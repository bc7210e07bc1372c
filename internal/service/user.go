package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
	"github.com/yamdb/yamdb-server/internal/validation"
)

// CreateUserRequest is the admin payload for a new account.
type CreateUserRequest struct {
	Username  string      `json:"username" validate:"required,max=150,username"`
	Email     string      `json:"email" validate:"required,max=254,email"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	Bio       string      `json:"bio"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// UpdateUserRequest is a partial profile update. Role is honoured only on the
// admin endpoint.
type UpdateUserRequest struct {
	Username  *string      `json:"username" validate:"omitempty,required,max=150,username"`
	Email     *string      `json:"email" validate:"omitempty,required,max=254,email"`
	FirstName *string      `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *domain.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (r *UpdateUserRequest) normalize() {
	if r.Username != nil {
		v := strings.TrimSpace(*r.Username)
		r.Username = &v
	}
	if r.Email != nil {
		v := normalizeEmail(*r.Email)
		r.Email = &v
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserService manages accounts: the admin user directory and each user's own profile.
type UserService struct {
	store     store.UserStore
	enforcer  *authz.Enforcer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.UserStore, enforcer *authz.Enforcer, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{store: store, enforcer: enforcer, validator: validator, logger: logger}
}

// List returns accounts ordered by username, filtered by a username substring.
func (s *UserService) List(ctx context.Context, actor *domain.User, search string, page store.Page) (store.Result[domain.User], error) {
	if err := authorize(s.enforcer, actor, authz.ResourceUser, authz.ActionRead, 0); err != nil {
		return store.Result[domain.User]{}, err
	}
	return s.store.ListUsers(ctx, search, page)
}

// Get returns an account by username.
func (s *UserService) Get(ctx context.Context, actor *domain.User, username string) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceUser, authz.ActionRead, 0); err != nil {
		return nil, err
	}
	return s.byUsername(ctx, username)
}

func (s *UserService) byUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return u, nil
}

// Create adds an account on behalf of an admin. The new user still signs in
// through the confirmation code flow.
func (s *UserService) Create(ctx context.Context, actor *domain.User, req CreateUserRequest) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceUser, authz.ActionCreate, 0); err != nil {
		return nil, err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = domain.RoleUser
	}

	fields := s.validator.Fields(req)
	fields = s.checkAvailable(ctx, 0, req.Username, req.Email, fields)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, uniqueUserError(err, "create user")
	}
	s.logger.Info("user created", "username", u.Username, "role", u.Role, "by", actor.Username)
	return u, nil
}

// CreateSuperuser adds an admin account that passes every permission check.
// It is reserved for operators with direct access to the database.
func (s *UserService) CreateSuperuser(ctx context.Context, username, email string) (*domain.User, error) {
	req := CreateUserRequest{
		Username: strings.TrimSpace(username),
		Email:    normalizeEmail(email),
		Role:     domain.RoleAdmin,
	}

	fields := s.validator.Fields(req)
	fields = s.checkAvailable(ctx, 0, req.Username, req.Email, fields)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:    req.Username,
		Email:       req.Email,
		Role:        domain.RoleAdmin,
		IsSuperuser: true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, uniqueUserError(err, "create superuser")
	}
	s.logger.Info("superuser created", "username", u.Username)
	return u, nil
}

// Update applies an admin's partial update to username's account, role included.
func (s *UserService) Update(ctx context.Context, actor *domain.User, username string, req UpdateUserRequest) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceUser, authz.ActionUpdate, 0); err != nil {
		return nil, err
	}
	u, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, u, req, true); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", "username", u.Username, "by", actor.Username)
	return u, nil
}

// Delete removes username's account together with its reviews and comments.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, username string) error {
	if err := authorize(s.enforcer, actor, authz.ResourceUser, authz.ActionDelete, 0); err != nil {
		return err
	}
	u, err := s.byUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return notFound(err, "user not found")
	}
	s.logger.Info("user deleted", "username", u.Username, "by", actor.Username)
	return nil
}

// Me returns the caller's own profile.
func (s *UserService) Me(ctx context.Context, actor *domain.User) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceProfile, authz.ActionRead, 0); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return u, nil
}

// UpdateMe applies a partial update to the caller's own profile.
//
// A plain user who sends a role at all is rejected. Moderators and admins may
// send one but it is ignored: nobody changes their own role here.
func (s *UserService) UpdateMe(ctx context.Context, actor *domain.User, req UpdateUserRequest) (*domain.User, error) {
	if err := authorize(s.enforcer, actor, authz.ResourceProfile, authz.ActionUpdate, 0); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if !actor.IsModerator() {
			return nil, domainerrors.FieldErrors{}.Add("role", "you cannot change your own role").Err()
		}
		req.Role = nil
	}

	u, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	if err := s.apply(ctx, u, req, false); err != nil {
		return nil, err
	}
	s.logger.Info("profile updated", "username", u.Username)
	return u, nil
}

func (s *UserService) apply(ctx context.Context, u *domain.User, req UpdateUserRequest, allowRole bool) error {
	req.normalize()
	fields := s.validator.Fields(req)

	username, email := "", ""
	if req.Username != nil && *req.Username != u.Username {
		username = *req.Username
	}
	if req.Email != nil && *req.Email != u.Email {
		email = *req.Email
	}
	fields = s.checkAvailable(ctx, u.ID, username, email, fields)
	if err := fields.Err(); err != nil {
		return err
	}

	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if allowRole && req.Role != nil {
		u.Role = *req.Role
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return uniqueUserError(err, "update user")
	}
	return nil
}

// checkAvailable adds an error for every non-empty username or email already
// held by an account other than selfID. Fields that already failed validation
// are skipped.
func (s *UserService) checkAvailable(ctx context.Context, selfID int64, username, email string, fields domainerrors.FieldErrors) domainerrors.FieldErrors {
	if username != "" && !fields.Has("username") {
		if other, err := s.store.GetUserByUsername(ctx, username); err == nil && other.ID != selfID {
			fields = fields.Add("username", "user with this username already exists")
		}
	}
	if email != "" && !fields.Has("email") {
		if other, err := s.store.GetUserByEmail(ctx, email); err == nil && other.ID != selfID {
			fields = fields.Add("email", "user with this email already exists")
		}
	}
	return fields
}

// uniqueUserError reports a UNIQUE violation on username or email as a field error.
func uniqueUserError(err error, op string) error {
	if field, ok := uniqueViolation(err); ok && (field == "username" || field == "email") {
		return domainerrors.FieldErrors{}.Add(field, fmt.Sprintf("user with this %s already exists", field)).Err()
	}
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound("user not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
