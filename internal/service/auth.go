package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yamdb/yamdb-server/internal/auth"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/mail"
	"github.com/yamdb/yamdb-server/internal/metrics"
	"github.com/yamdb/yamdb-server/internal/store"
	"github.com/yamdb/yamdb-server/internal/validation"
)

const confirmationSubject = "Your YaMDb confirmation code"

// SignupRequest asks for a confirmation code to be emailed.
type SignupRequest struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

// SignupResponse echoes the identity the code was sent for.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest exchanges a confirmation code for a bearer token.
type TokenRequest struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AuthService runs the passwordless signup flow and verifies bearer tokens.
type AuthService struct {
	store     store.UserStore
	tokens    *auth.TokenService
	codes     *auth.CodeGenerator
	mailer    mail.Mailer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.UserStore,
	tokens *auth.TokenService,
	codes *auth.CodeGenerator,
	mailer mail.Mailer,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		codes:     codes,
		mailer:    mailer,
		validator: validator,
		logger:    logger,
	}
}

// Signup registers username and email, or finds the account already holding
// exactly that pair, and emails it a fresh confirmation code. Only the newest
// code is accepted afterwards.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)

	fields := s.validator.Fields(req)
	if err := fields.Err(); err != nil {
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	byName, err := s.lookup(ctx, s.store.GetUserByUsername, req.Username)
	if err != nil {
		return nil, err
	}
	byEmail, err := s.lookup(ctx, s.store.GetUserByEmail, req.Email)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	outcome := "resent"
	switch {
	case byName != nil && byEmail != nil && byName.ID == byEmail.ID:
		user = byName
	case byName != nil || byEmail != nil:
		if byName != nil {
			fields = fields.Add("username", "user with this username already exists")
		}
		if byEmail != nil {
			fields = fields.Add("email", "user with this email already exists")
		}
		metrics.SignupsTotal.WithLabelValues("rejected").Inc()
		return nil, fields.Err()
	default:
		user = &domain.User{Username: req.Username, Email: req.Email, Role: domain.RoleUser}
		if err := s.store.CreateUser(ctx, user); err != nil {
			metrics.SignupsTotal.WithLabelValues("rejected").Inc()
			return nil, uniqueUserError(err, "create user")
		}
		outcome = "created"
		s.logger.Info("user signed up", "username", user.Username)
	}

	if err := s.sendCode(ctx, user); err != nil {
		return nil, err
	}
	metrics.SignupsTotal.WithLabelValues(outcome).Inc()

	return &SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *AuthService) lookup(ctx context.Context, get func(context.Context, string) (*domain.User, error), key string) (*domain.User, error) {
	u, err := get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return u, nil
}

// sendCode issues a code, stores it as the user's only valid one and mails it.
func (s *AuthService) sendCode(ctx context.Context, user *domain.User) error {
	code, err := s.codes.Issue(user)
	if err != nil {
		return err
	}
	if err := s.store.SetConfirmationCode(ctx, user.ID, code); err != nil {
		return fmt.Errorf("store confirmation code: %w", err)
	}
	user.ConfirmationCode = code

	msg := mail.Message{
		To:      user.Email,
		Subject: confirmationSubject,
		Body: fmt.Sprintf("Hello %s,\n\nyour confirmation code is:\n\n%s\n\n"+
			"Exchange it for an access token at /api/v1/auth/token.\n", user.Username, code),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send confirmation code", "username", user.Username, "error", err)
		if errors.Is(err, mail.ErrInvalidAddress) {
			return domainerrors.FieldErrors{}.Add("email", "enter a valid email address").Err()
		}
		return domainerrors.Unavailable("could not send the confirmation email").WithCause(err)
	}
	return nil
}

// Token exchanges the latest confirmation code of username for an access token.
func (s *AuthService) Token(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.ConfirmationCode = strings.TrimSpace(req.ConfirmationCode)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.TokenExchangesTotal.WithLabelValues("unknown_user").Inc()
		}
		return nil, notFound(err, "user not found")
	}

	if !auth.CodesMatch(user.ConfirmationCode, req.ConfirmationCode) {
		return nil, s.invalidCode(user, "code is not the latest issued")
	}
	if err := s.codes.Verify(user, req.ConfirmationCode); err != nil {
		return nil, s.invalidCode(user, err.Error())
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	metrics.TokenExchangesTotal.WithLabelValues("issued").Inc()
	s.logger.Info("access token issued", "username", user.Username)

	return &TokenResponse{Token: token}, nil
}

func (s *AuthService) invalidCode(user *domain.User, reason string) error {
	metrics.TokenExchangesTotal.WithLabelValues("invalid_code").Inc()
	s.logger.Warn("token exchange rejected", "username", user.Username, "reason", reason)
	return domainerrors.FieldErrors{}.Add("confirmation_code", "invalid confirmation code").Err()
}

// VerifyAccessToken resolves a bearer token to the current state of its user.
// Role changes take effect on the next request, and deleted users lose access.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}
	return user, nil
}
