package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/communitycal/server/internal/api/problem"
	"github.com/communitycal/server/internal/auth"
	"github.com/communitycal/server/internal/domain/events"
	"github.com/communitycal/server/internal/domain/ids"
	"github.com/communitycal/server/internal/domain/users"
)

// respondError maps domain errors onto problem+json responses. Anything not
// in the taxonomy is a server error; the detail is hidden outside development.
func respondError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var userValidation users.ValidationError
	var eventValidation events.ValidationError

	switch {
	case errors.As(err, &userValidation), errors.As(err, &eventValidation), errors.Is(err, ids.ErrInvalidID):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
	case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, env)
	case errors.Is(err, events.ErrNotFound), errors.Is(err, users.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env)
	case errors.Is(err, users.ErrConflict):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
