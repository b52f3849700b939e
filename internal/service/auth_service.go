package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/repository"
	apperrors "github.com/feedback-hub/helpdesk/pkg/util"
)

// AuthService handles registration and login.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost, dispatcher: dispatcher}
}

// RegisterInput describes a signup request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is a user plus their signed session token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an end-user account and issues a session token.
func (s *AuthService) Register(ctx context.Context, appID string, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventUserRegistered,
			Timestamp: time.Now(),
			Payload:   events.UserRegisteredPayload{User: *user, AppID: appID},
		})
	}

	return s.issue(user)
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Banned {
		return nil, apperrors.NewForbidden("account is banned")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
