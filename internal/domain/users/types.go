package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")

	// ErrConflict covers both duplicate usernames and duplicate emails; the
	// API reports them with a single message.
	ErrConflict = errors.New("email or username already registered")

	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so login failures never reveal which check failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

type CreateParams struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
