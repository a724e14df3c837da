package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/communitycal/server/internal/auth"
	"github.com/communitycal/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	createFn          func(ctx context.Context, params users.CreateParams) (*users.User, error)
	getByEmailFn      func(ctx context.Context, email string) (*users.User, error)
	existsFn          func(ctx context.Context, username, email string) (bool, error)
	updateLastLoginFn func(ctx context.Context, id string) error
}

func (s *stubUserRepo) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	if s.createFn != nil {
		return s.createFn(ctx, params)
	}
	return &users.User{
		ID:           params.ID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now(),
	}, nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return nil, users.ErrNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, users.ErrNotFound
}

func (s *stubUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if s.existsFn != nil {
		return s.existsFn(ctx, username, email)
	}
	return false, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if s.updateLastLoginFn != nil {
		return s.updateLastLoginFn(ctx, id)
	}
	return nil
}

func newAuthHandler(repo users.Repository) *AuthHandler {
	tokens := auth.NewTokenManager("test-secret", time.Hour, "communitycal")
	service := users.NewService(repo, tokens, zerolog.Nop())
	return NewAuthHandler(service, "test")
}

func TestRegisterReturnsSession(t *testing.T) {
	h := newAuthHandler(&stubUserRepo{})

	body := `{"username":"alice","email":"alice@example.com","password":"password123"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp["username"])
	require.Equal(t, "alice@example.com", resp["email"])
	require.NotEmpty(t, resp["id"])
	require.NotEmpty(t, resp["token"])
}

func TestRegisterValidationProblem(t *testing.T) {
	h := newAuthHandler(&stubUserRepo{})

	body := `{"username":"al","email":"alice@example.com","password":"password123"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var prob map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prob))
	require.Equal(t, "https://communitycal.app/problems/validation-error", prob["type"])
}

func TestRegisterMalformedBody(t *testing.T) {
	h := newAuthHandler(&stubUserRepo{})

	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Register(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterConflict(t *testing.T) {
	h := newAuthHandler(&stubUserRepo{
		existsFn: func(ctx context.Context, username, email string) (bool, error) {
			return true, nil
		},
	})

	body := `{"username":"alice","email":"alice@example.com","password":"password123"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, r)

	require.Equal(t, http.StatusConflict, w.Code)

	var prob map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prob))
	require.Equal(t, "https://communitycal.app/problems/conflict", prob["type"])
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	h := newAuthHandler(&stubUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*users.User, error) {
			return &users.User{ID: "user-1", Username: "alice", Email: email, PasswordHash: hash}, nil
		},
	})

	body := `{"email":"alice@example.com","password":"password123"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "user-1", resp["id"])
	require.NotEmpty(t, resp["token"])
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	wrongPassword := newAuthHandler(&stubUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*users.User, error) {
			return &users.User{ID: "user-1", Username: "alice", Email: email, PasswordHash: hash}, nil
		},
	})
	unknownEmail := newAuthHandler(&stubUserRepo{})

	bodies := map[*AuthHandler]string{
		wrongPassword: `{"email":"alice@example.com","password":"wrong-password"}`,
		unknownEmail:  `{"email":"nobody@example.com","password":"password123"}`,
	}

	var details []string
	for h, body := range bodies {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Login(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)

		var prob map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prob))
		require.Equal(t, "https://communitycal.app/problems/unauthorized", prob["type"])
		details = append(details, prob["detail"].(string))
	}

	require.Len(t, details, 2)
	require.Equal(t, details[0], details[1])
}
