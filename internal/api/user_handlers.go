package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"

	"github.com/yamdb/yamdb-server/internal/domain"
	"github.com/yamdb/yamdb-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	// /users/me is registered before /users/{username}; "me" is a reserved username.
	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get own profile",
		Description: "Returns the profile of the authenticated user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update own profile",
		Description: "Partially updates the profile of the authenticated user. The role cannot be changed here.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMe)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns accounts ordered by username. Admin only.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Create user",
		Description:   "Creates an account. The user signs in through the confirmation code flow. Admin only.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}",
		Summary:     "Get user",
		Description: "Returns an account by username. Admin only.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/{username}",
		Summary:     "Update user",
		Description: "Partially updates an account, role included. Admin only.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateUser)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteUser",
		Method:        http.MethodDelete,
		Path:          "/api/v1/users/{username}",
		Summary:       "Delete user",
		Description:   "Deletes an account with its reviews and comments. Admin only.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteUser)
}

// === DTOs ===

// UserResponse contains user data in API responses.
type UserResponse struct {
	Username  string `json:"username" doc:"Username"`
	Email     string `json:"email" doc:"Email address"`
	FirstName string `json:"first_name" doc:"First name"`
	LastName  string `json:"last_name" doc:"Last name"`
	Bio       string `json:"bio" doc:"Biography"`
	Role      string `json:"role" doc:"user, moderator or admin"`
}

// ListUsersInput contains parameters for listing users.
type ListUsersInput struct {
	PageParams
	Search string `query:"search" doc:"Case-insensitive substring of the username"`
}

// ListUsersOutput wraps a page of users for Huma.
type ListUsersOutput struct {
	Body Page[UserResponse]
}

// CreateUserRequest is the request body for creating a user.
type CreateUserRequest struct {
	Username  string `json:"username,omitempty" doc:"Username"`
	Email     string `json:"email,omitempty" doc:"Email address"`
	FirstName string `json:"first_name,omitempty" doc:"First name"`
	LastName  string `json:"last_name,omitempty" doc:"Last name"`
	Bio       string `json:"bio,omitempty" doc:"Biography"`
	Role      string `json:"role,omitempty" doc:"user, moderator or admin; defaults to user"`
}

// CreateUserInput wraps the create user request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// UpdateUserRequest is the request body for a partial account update.
type UpdateUserRequest struct {
	Username  *string `json:"username,omitempty" doc:"Username"`
	Email     *string `json:"email,omitempty" doc:"Email address"`
	FirstName *string `json:"first_name,omitempty" doc:"First name"`
	LastName  *string `json:"last_name,omitempty" doc:"Last name"`
	Bio       *string `json:"bio,omitempty" doc:"Biography"`
	Role      *string `json:"role,omitempty" doc:"user, moderator or admin"`
}

// UpdateUserInput wraps the admin update request for Huma.
type UpdateUserInput struct {
	Username string `path:"username" doc:"Username"`
	Body     UpdateUserRequest
}

// UpdateMeInput wraps the self-update request for Huma. The raw body is kept
// to tell an explicit "role": null from an absent role.
type UpdateMeInput struct {
	Body    UpdateUserRequest
	RawBody []byte
}

// UsernameInput addresses an account by username.
type UsernameInput struct {
	Username string `path:"username" doc:"Username"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      string(u.Role),
	}
}

func (r UpdateUserRequest) toService() service.UpdateUserRequest {
	req := service.UpdateUserRequest{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		req.Role = &role
	}
	return req
}

// hasKey reports whether the top-level JSON object in raw contains key.
func hasKey(raw []byte, key string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	_, ok := obj[key]
	return ok
}

// === Handlers ===

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	u, err := s.services.Users.Me(ctx, currentUser(ctx))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleUpdateMe(ctx context.Context, input *UpdateMeInput) (*UserOutput, error) {
	req := input.Body.toService()
	if req.Role == nil && hasKey(input.RawBody, "role") {
		empty := domain.Role("")
		req.Role = &empty
	}

	u, err := s.services.Users.UpdateMe(ctx, currentUser(ctx), req)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	page := s.page(input.PageParams)
	res, err := s.services.Users.List(ctx, currentUser(ctx), input.Search, page)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{Body: newPage(ctx, res, page, userResponse)}, nil
}

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	u, err := s.services.Users.Create(ctx, currentUser(ctx), service.CreateUserRequest{
		Username:  input.Body.Username,
		Email:     input.Body.Email,
		FirstName: input.Body.FirstName,
		LastName:  input.Body.LastName,
		Bio:       input.Body.Bio,
		Role:      domain.Role(input.Body.Role),
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *UsernameInput) (*UserOutput, error) {
	u, err := s.services.Users.Get(ctx, currentUser(ctx), input.Username)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleUpdateUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	u, err := s.services.Users.Update(ctx, currentUser(ctx), input.Username, input.Body.toService())
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, input *UsernameInput) (*struct{}, error) {
	if err := s.services.Users.Delete(ctx, currentUser(ctx), input.Username); err != nil {
		return nil, err
	}
	return nil, nil
}
