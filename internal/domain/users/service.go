package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/communitycal/server/internal/auth"
	"github.com/communitycal/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// Session is returned from both Register and Login: the user's public
// identity plus a freshly issued bearer token.
type Session struct {
	UserID   string
	Username string
	Email    string
	Token    string
}

type Service struct {
	repo   Repository
	tokens *auth.TokenManager
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenManager, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Email = strings.TrimSpace(params.Email)

	if err := validateStruct(params); err != nil {
		return nil, err
	}

	// Single OR query, mirroring the uniqueness check at registration time.
	// The storage layer also maps unique-violation errors to ErrConflict, so
	// two concurrent registrations cannot both land.
	taken, err := s.repo.ExistsByUsernameOrEmail(ctx, params.Username, params.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if taken {
		return nil, ErrConflict
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ID:           id,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	return s.session(user)
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*Session, error) {
	params.Email = strings.TrimSpace(params.Email)

	if err := validateStruct(params); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, params.Password) {
		return nil, ErrInvalidCredentials
	}

	// Best effort; a failed timestamp update must not fail the login.
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("last login update failed")
	}

	return s.session(user)
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	}, nil
}
