package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/communitycal/server/internal/api/middleware"
	"github.com/communitycal/server/internal/audit"
	"github.com/communitycal/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubEventRepo struct {
	listFn        func(ctx context.Context, filters events.Filters, viewerID string) ([]events.View, error)
	getByIDFn     func(ctx context.Context, id string) (*events.Event, error)
	createFn      func(ctx context.Context, params events.CreateParams) (*events.Event, error)
	updateFn      func(ctx context.Context, id string, params events.UpdateParams) error
	deleteFn      func(ctx context.Context, id string) error
	setRSVPFn     func(ctx context.Context, eventID, userID, status string) error
	setFavoriteFn func(ctx context.Context, eventID, userID string, favorited bool) error
}

func (s *stubEventRepo) List(ctx context.Context, filters events.Filters, viewerID string) ([]events.View, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filters, viewerID)
	}
	return nil, nil
}

func (s *stubEventRepo) GetByID(ctx context.Context, id string) (*events.Event, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, events.ErrNotFound
}

func (s *stubEventRepo) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	if s.createFn != nil {
		return s.createFn(ctx, params)
	}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &events.Event{
		ID:          params.ID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Date:        params.Date,
		Time:        params.Time,
		Location:    params.Location,
		ContactInfo: params.ContactInfo,
		MaxCapacity: params.MaxCapacity,
		Tags:        params.Tags,
		Organizer:   params.Organizer,
		OrganizerID: params.OrganizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *stubEventRepo) Update(ctx context.Context, id string, params events.UpdateParams) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, params)
	}
	return nil
}

func (s *stubEventRepo) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubEventRepo) SetRSVP(ctx context.Context, eventID, userID, status string) error {
	if s.setRSVPFn != nil {
		return s.setRSVPFn(ctx, eventID, userID, status)
	}
	return nil
}

func (s *stubEventRepo) SetFavorite(ctx context.Context, eventID, userID string, favorited bool) error {
	if s.setFavoriteFn != nil {
		return s.setFavoriteFn(ctx, eventID, userID, favorited)
	}
	return nil
}

type staticDirectory struct{ username string }

func (d staticDirectory) Username(ctx context.Context, userID string) (string, error) {
	return d.username, nil
}

func newEventsHandler(repo events.Repository) *EventsHandler {
	service := events.NewService(repo, staticDirectory{username: "alice"})
	return NewEventsHandler(service, audit.NewLogger(zerolog.Nop()), "test")
}

// routed serves a request through a mux so PathValue works,
// with the given user id planted in the context the way RequireAuth does.
func routed(h http.HandlerFunc, method, pattern, target, body, userID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)

	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		r = r.WithContext(middleware.WithUserID(r.Context(), userID))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

const validEventBody = `{"title":"Community Cleanup","description":"Bring gloves","category":"volunteer","date":"2026-09-10","time":"10:00","location":"Riverside Park","contact_info":"alice@example.com","max_capacity":0,"tags":["outdoors"]}`

// Path ids have to be well formed ULIDs to get past the handlers.
const (
	testEventID    = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	missingEventID = "01BX5ZZKBKACTAV9WEVGEMMVRZ"
)

func TestCreateEventReturns201WithEmptyProjection(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{})

	w := routed(h.Create, http.MethodPost, "/api/events", "/api/events", validEventBody, "user-1")

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Community Cleanup", resp["title"])
	require.Equal(t, "alice", resp["organizer"])
	require.Equal(t, "user-1", resp["organizer_id"])
	require.Equal(t, float64(0), resp["attendees_going"])
	require.Equal(t, float64(0), resp["attendees_interested"])
	require.Equal(t, "", resp["user_rsvp"])
	require.Equal(t, false, resp["is_favorited"])
}

func TestCreateEventValidation(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{})

	body := `{"title":"ab","category":"volunteer","date":"2026-09-10"}`
	w := routed(h.Create, http.MethodPost, "/api/events", "/api/events", body, "user-1")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestListEventsSerializesProjection(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{
		listFn: func(ctx context.Context, filters events.Filters, viewerID string) ([]events.View, error) {
			require.Equal(t, "music", filters.Category)
			require.Equal(t, "user-2", viewerID)
			return []events.View{
				{
					Event: events.Event{
						ID:                  "01HZX",
						Title:               "Open Mic",
						Category:            "music",
						Date:                "2026-09-12",
						Organizer:           "bob",
						OrganizerID:         "user-9",
						AttendeesGoing:      3,
						AttendeesInterested: 1,
					},
					UserRSVP:    "going",
					IsFavorited: true,
				},
			}, nil
		},
	})

	w := routed(h.List, http.MethodGet, "/api/events", "/api/events?category=music", "", "user-2")

	require.Equal(t, http.StatusOK, w.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "going", resp[0]["user_rsvp"])
	require.Equal(t, true, resp[0]["is_favorited"])
	require.Equal(t, float64(3), resp[0]["attendees_going"])

	// Raw membership must never appear in the payload.
	_, hasRSVPs := resp[0]["rsvps"]
	_, hasFavorites := resp[0]["favorites"]
	require.False(t, hasRSVPs)
	require.False(t, hasFavorites)
}

func TestListEventsAnonymous(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{
		listFn: func(ctx context.Context, filters events.Filters, viewerID string) ([]events.View, error) {
			require.Empty(t, viewerID)
			return nil, nil
		},
	})

	w := routed(h.List, http.MethodGet, "/api/events", "/api/events", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestUpdateEventOwnerOnly(t *testing.T) {
	owned := &events.Event{ID: testEventID, OrganizerID: "user-1"}
	h := newEventsHandler(&stubEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*events.Event, error) {
			return owned, nil
		},
	})

	w := routed(h.Update, http.MethodPut, "/api/events/{id}", "/api/events/"+testEventID, validEventBody, "user-2")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = routed(h.Update, http.MethodPut, "/api/events/{id}", "/api/events/"+testEventID, validEventBody, "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Event updated", resp["message"])
}

func TestUpdateEventNotFound(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{})

	w := routed(h.Update, http.MethodPut, "/api/events/{id}", "/api/events/"+missingEventID, validEventBody, "user-1")

	require.Equal(t, http.StatusNotFound, w.Code)

	var prob map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prob))
	require.Equal(t, "https://communitycal.app/problems/not-found", prob["type"])
}

func TestDeleteEventReturns204(t *testing.T) {
	deleted := false
	h := newEventsHandler(&stubEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*events.Event, error) {
			return &events.Event{ID: id, OrganizerID: "user-1"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	})

	w := routed(h.Delete, http.MethodDelete, "/api/events/{id}", "/api/events/"+testEventID, "", "user-1")

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())
	require.True(t, deleted)
}

func TestRSVPEchoesRequestedStatus(t *testing.T) {
	var stored string
	h := newEventsHandler(&stubEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*events.Event, error) {
			return &events.Event{ID: id, OrganizerID: "user-9"}, nil
		},
		setRSVPFn: func(ctx context.Context, eventID, userID, status string) error {
			stored = status
			return nil
		},
	})

	w := routed(h.RSVP, http.MethodPost, "/api/events/{id}/rsvp", "/api/events/"+testEventID+"/rsvp", `{"rsvp_status":"going"}`, "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, testEventID, resp["event_id"])
	require.Equal(t, "going", resp["rsvp_status"])
	require.Equal(t, "going", stored)

	// "not_going" is echoed back but stored as an absent RSVP.
	w = routed(h.RSVP, http.MethodPost, "/api/events/{id}/rsvp", "/api/events/"+testEventID+"/rsvp", `{"rsvp_status":"not_going"}`, "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "not_going", resp["rsvp_status"])
	require.Empty(t, stored)
}

func TestRSVPInvalidStatus(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*events.Event, error) {
			return &events.Event{ID: id}, nil
		},
	})

	w := routed(h.RSVP, http.MethodPost, "/api/events/{id}/rsvp", "/api/events/"+testEventID+"/rsvp", `{"rsvp_status":"maybe"}`, "user-1")

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRSVPUnknownEvent(t *testing.T) {
	h := newEventsHandler(&stubEventRepo{})

	w := routed(h.RSVP, http.MethodPost, "/api/events/{id}/rsvp", "/api/events/"+missingEventID+"/rsvp", `{"rsvp_status":"going"}`, "user-1")

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventIDMustBeULID(t *testing.T) {
	repoTouched := false
	h := newEventsHandler(&stubEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*events.Event, error) {
			repoTouched = true
			return &events.Event{ID: id}, nil
		},
	})

	cases := []struct {
		name    string
		handler http.HandlerFunc
		method  string
		pattern string
		target  string
		body    string
	}{
		{"update", h.Update, http.MethodPut, "/api/events/{id}", "/api/events/not-a-real-id", validEventBody},
		{"delete", h.Delete, http.MethodDelete, "/api/events/{id}", "/api/events/123", ""},
		{"rsvp", h.RSVP, http.MethodPost, "/api/events/{id}/rsvp", "/api/events/%25/rsvp", `{"rsvp_status":"going"}`},
		{"favorite", h.Favorite, http.MethodPost, "/api/events/{id}/favorite", "/api/events/drop-table/favorite", `{"is_favorited":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := routed(tc.handler, tc.method, tc.pattern, tc.target, tc.body, "user-1")
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
			require.False(t, repoTouched)
		})
	}
}

func TestFavoriteRoundTrip(t *testing.T) {
	var gotFavorited bool
	h := newEventsHandler(&stubEventRepo{
		getByIDFn: func(ctx context.Context, id string) (*events.Event, error) {
			return &events.Event{ID: id}, nil
		},
		setFavoriteFn: func(ctx context.Context, eventID, userID string, favorited bool) error {
			gotFavorited = favorited
			return nil
		},
	})

	w := routed(h.Favorite, http.MethodPost, "/api/events/{id}/favorite", "/api/events/"+testEventID+"/favorite", `{"is_favorited":true}`, "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, testEventID, resp["event_id"])
	require.Equal(t, true, resp["is_favorited"])
	require.True(t, gotFavorited)

	w = routed(h.Favorite, http.MethodPost, "/api/events/{id}/favorite", "/api/events/"+testEventID+"/favorite", `{"is_favorited":false}`, "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, false, resp["is_favorited"])
	require.False(t, gotFavorited)
}
