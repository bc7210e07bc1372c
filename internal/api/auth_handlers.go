package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/yamdb/yamdb-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Sign up",
		Description: "Creates an account if needed and emails a confirmation code. Repeating the request with the same username and email sends a fresh code.",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.limitAuth},
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "obtainToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/token",
		Summary:     "Obtain token",
		Description: "Exchanges the emailed confirmation code for a bearer token",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.limitAuth},
	}, s.handleToken)
}

// === DTOs ===

// SignupRequest is the request body for signup.
type SignupRequest struct {
	Username string `json:"username,omitempty" doc:"Desired username: letters, digits and @.+-_"`
	Email    string `json:"email,omitempty" doc:"Address the confirmation code is sent to"`
}

// SignupInput wraps the signup request for Huma.
type SignupInput struct {
	Body SignupRequest
}

// SignupResponse echoes the identity the code was sent for.
type SignupResponse struct {
	Username string `json:"username" doc:"Username"`
	Email    string `json:"email" doc:"Email address"`
}

// SignupOutput wraps the signup response for Huma.
type SignupOutput struct {
	Body SignupResponse
}

// TokenRequest is the request body for the token exchange.
type TokenRequest struct {
	Username         string `json:"username,omitempty" doc:"Username used at signup"`
	ConfirmationCode string `json:"confirmation_code,omitempty" doc:"Code from the signup email"`
}

// TokenInput wraps the token request for Huma.
type TokenInput struct {
	Body TokenRequest
}

// TokenResponse carries the bearer token.
type TokenResponse struct {
	Token string `json:"token" doc:"Bearer token for the Authorization header"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// === Handlers ===

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*SignupOutput, error) {
	resp, err := s.services.Auth.Signup(ctx, service.SignupRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
	})
	if err != nil {
		return nil, err
	}

	return &SignupOutput{Body: SignupResponse{Username: resp.Username, Email: resp.Email}}, nil
}

func (s *Server) handleToken(ctx context.Context, input *TokenInput) (*TokenOutput, error) {
	resp, err := s.services.Auth.Token(ctx, service.TokenRequest{
		Username:         input.Body.Username,
		ConfirmationCode: input.Body.ConfirmationCode,
	})
	if err != nil {
		return nil, err
	}

	return &TokenOutput{Body: TokenResponse{Token: resp.Token}}, nil
}
