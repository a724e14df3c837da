package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// Problem type URIs, one per error kind in the API taxonomy.
const (
	TypeValidation   = "https://communitycal.app/problems/validation-error"
	TypeUnauthorized = "https://communitycal.app/problems/unauthorized"
	TypeForbidden    = "https://communitycal.app/problems/forbidden"
	TypeNotFound     = "https://communitycal.app/problems/not-found"
	TypeConflict     = "https://communitycal.app/problems/conflict"
	TypeServerError  = "https://communitycal.app/problems/server-error"
)

type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string) {
	details := ProblemDetails{
		Type:   typ,
		Title:  title,
		Status: status,
	}

	if err != nil {
		if status < http.StatusInternalServerError || env == "development" || env == "test" {
			details.Detail = err.Error()
		} else {
			details.Detail = http.StatusText(status)
		}
	}

	if r != nil {
		details.Instance = r.URL.Path

		if err != nil && status >= http.StatusInternalServerError {
			logger := zerolog.Ctx(r.Context())
			logger.Error().
				Err(err).
				Int("status", status).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(title)
		} else if err != nil && status >= http.StatusBadRequest {
			logger := zerolog.Ctx(r.Context())
			logger.Warn().
				Err(err).
				Int("status", status).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(title)
		}
	}

	WriteProblem(w, details)
}

func WriteProblem(w http.ResponseWriter, details ProblemDetails) {
	payload, err := json.Marshal(details)
	if err != nil {
		fallback := fmt.Sprintf("{\"type\":\"about:blank\",\"title\":\"%s\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(details.Status)
	_, _ = w.Write(payload)
}
