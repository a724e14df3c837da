package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/communitycal/server/internal/domain/events"
	"github.com/communitycal/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ users.Repository          = (*UserRepository)(nil)
	_ events.OrganizerDirectory = (*UserRepository)(nil)
)

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (id, username, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`, params.ID, params.Username, params.Email, params.PasswordHash)

	user := &users.User{
		ID:           params.ID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
	}

	var createdAt pgtype.Timestamptz
	if err := row.Scan(&createdAt); err != nil {
		if isPgErr(err, pgUniqueViolation) {
			return nil, users.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.CreatedAt = createdAt.Time
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getBy(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT id, username, email, password_hash, created_at, last_login_at
  FROM users
 `+where+`
 LIMIT 1
`, arg)

	var (
		user      users.User
		createdAt pgtype.Timestamptz
		lastLogin pgtype.Timestamptz
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = createdAt.Time
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
`, username, email)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.queryer().Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Username resolves a user's display name; used to snapshot the organizer
// name onto new events.
func (r *UserRepository) Username(ctx context.Context, userID string) (string, error) {
	row := r.queryer().QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID)

	var username string
	if err := row.Scan(&username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", users.ErrNotFound
		}
		return "", fmt.Errorf("lookup username: %w", err)
	}
	return username, nil
}
