package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/communitycal/server/internal/api/middleware"
	"github.com/communitycal/server/internal/api/problem"
	"github.com/communitycal/server/internal/audit"
	"github.com/communitycal/server/internal/domain/events"
	"github.com/communitycal/server/internal/domain/ids"
	"github.com/communitycal/server/internal/metrics"
)

type EventsHandler struct {
	Service *events.Service
	Audit   *audit.Logger
	Env     string
}

func NewEventsHandler(service *events.Service, auditLog *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Audit: auditLog, Env: env}
}

// eventResponse is the wire shape of a single event. Only the viewer's own
// RSVP and favorite state is serialized; raw membership never leaves the
// store.
type eventResponse struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Category            string   `json:"category"`
	Date                string   `json:"date"`
	Time                string   `json:"time"`
	Location            string   `json:"location"`
	ContactInfo         string   `json:"contact_info"`
	MaxCapacity         int      `json:"max_capacity"`
	Tags                []string `json:"tags"`
	Organizer           string   `json:"organizer"`
	OrganizerID         string   `json:"organizer_id"`
	AttendeesGoing      int      `json:"attendees_going"`
	AttendeesInterested int      `json:"attendees_interested"`
	UserRSVP            string   `json:"user_rsvp"`
	IsFavorited         bool     `json:"is_favorited"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

func toEventResponse(view events.View) eventResponse {
	tags := view.Tags
	if tags == nil {
		tags = []string{}
	}
	return eventResponse{
		ID:                  view.ID,
		Title:               view.Title,
		Description:         view.Description,
		Category:            view.Category,
		Date:                view.Date,
		Time:                view.Time,
		Location:            view.Location,
		ContactInfo:         view.ContactInfo,
		MaxCapacity:         view.MaxCapacity,
		Tags:                tags,
		Organizer:           view.Organizer,
		OrganizerID:         view.OrganizerID,
		AttendeesGoing:      view.AttendeesGoing,
		AttendeesInterested: view.AttendeesInterested,
		UserRSVP:            view.UserRSVP,
		IsFavorited:         view.IsFavorited,
		CreatedAt:           view.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           view.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := events.ParseFilters(r.URL.Query())
	viewer := events.Viewer{UserID: middleware.UserID(r)}

	views, err := h.Service.List(r.Context(), filters, viewer)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(views))
	for _, view := range views {
		items = append(items, toEventResponse(view))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	userID := middleware.UserID(r)
	created, err := h.Service.Create(r.Context(), input, userID)
	if err != nil {
		h.Audit.Failure(r, "event.create", userID, "", err)
		respondError(w, r, err, h.Env)
		return
	}

	h.Audit.Success(r, "event.create", userID, created.ID)
	metrics.EventsCreatedTotal.Inc()
	// A just-created event has no RSVPs or favorites, including the owner's.
	writeJSON(w, http.StatusCreated, toEventResponse(events.View{Event: *created}))
}

// eventID extracts and validates the {id} path parameter. Stored event ids
// are ULIDs, so anything else is rejected before reaching the database.
func eventID(r *http.Request) (string, error) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.Validate(id); err != nil {
		return "", err
	}
	return id, nil
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	userID := middleware.UserID(r)
	if err := h.Service.Update(r.Context(), id, input, userID); err != nil {
		h.Audit.Failure(r, "event.update", userID, id, err)
		respondError(w, r, err, h.Env)
		return
	}

	h.Audit.Success(r, "event.update", userID, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event updated"})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	userID := middleware.UserID(r)
	if err := h.Service.Delete(r.Context(), id, userID); err != nil {
		h.Audit.Failure(r, "event.delete", userID, id, err)
		respondError(w, r, err, h.Env)
		return
	}

	h.Audit.Success(r, "event.delete", userID, id)
	w.WriteHeader(http.StatusNoContent)
}

type rsvpRequest struct {
	Status string `json:"rsvp_status"`
}

type rsvpResponse struct {
	EventID string `json:"event_id"`
	Status  string `json:"rsvp_status"`
}

func (h *EventsHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	var req rsvpRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	userID := middleware.UserID(r)
	status, err := h.Service.SetRSVP(r.Context(), id, userID, req.Status)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	h.Audit.Success(r, "event.rsvp", userID, id)
	metrics.RSVPUpdatesTotal.WithLabelValues(status).Inc()
	writeJSON(w, http.StatusOK, rsvpResponse{EventID: id, Status: status})
}

type favoriteRequest struct {
	IsFavorited bool `json:"is_favorited"`
}

type favoriteResponse struct {
	EventID     string `json:"event_id"`
	IsFavorited bool   `json:"is_favorited"`
}

func (h *EventsHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	var req favoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	userID := middleware.UserID(r)
	if err := h.Service.SetFavorite(r.Context(), id, userID, req.IsFavorited); err != nil {
		respondError(w, r, err, h.Env)
		return
	}

	h.Audit.Success(r, "event.favorite", userID, id)

	state := "off"
	if req.IsFavorited {
		state = "on"
	}
	metrics.FavoriteTogglesTotal.WithLabelValues(state).Inc()
	writeJSON(w, http.StatusOK, favoriteResponse{EventID: id, IsFavorited: req.IsFavorited})
}
