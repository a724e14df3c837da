package handlers

import (
	"net/http"

	"github.com/communitycal/server/internal/api/problem"
	"github.com/communitycal/server/internal/domain/users"
	"github.com/communitycal/server/internal/metrics"
)

type AuthHandler struct {
	Service *users.Service
	Env     string
}

func NewAuthHandler(service *users.Service, env string) *AuthHandler {
	return &AuthHandler{Service: service, Env: env}
}

type sessionResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params users.RegisterParams
	if err := decodeJSON(r, &params); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	session, err := h.Service.Register(r.Context(), params)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	metrics.UserRegistrationsTotal.Inc()
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:       session.UserID,
		Username: session.Username,
		Email:    session.Email,
		Token:    session.Token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var params users.LoginParams
	if err := decodeJSON(r, &params); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	session, err := h.Service.Login(r.Context(), params)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		respondError(w, r, err, h.Env)
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:       session.UserID,
		Username: session.Username,
		Email:    session.Email,
		Token:    session.Token,
	})
}
