package events

import (
	"context"
	"errors"
	"time"
)

// RSVP statuses stored per (event, user). "not_going" and "" are accepted on
// the wire but both mean "no RSVP" and are never stored.
const (
	StatusGoing      = "going"
	StatusInterested = "interested"
	StatusNotGoing   = "not_going"
)

var (
	ErrNotFound = errors.New("event not found")

	// ErrForbidden means the caller is authenticated but is not the event's
	// organizer.
	ErrForbidden = errors.New("not the event organizer")
)

type Event struct {
	ID          string
	Title       string
	Description string
	Category    string
	Date        string // YYYY-MM-DD
	Time        string
	Location    string
	ContactInfo string
	MaxCapacity int // 0 = unlimited
	Tags        []string

	// Organizer is the creator's username snapshotted at creation; it does
	// not follow later renames. OrganizerID is the owning user reference and
	// is immutable.
	Organizer   string
	OrganizerID string

	// Cached counts, always re-derivable from the stored RSVPs.
	AttendeesGoing      int
	AttendeesInterested int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// View is an event as seen by one viewer: the event plus the two derived
// projection fields. RSVP and favorite membership is never exposed, so a
// viewer cannot observe other users' RSVPs or favorites.
type View struct {
	Event
	UserRSVP    string
	IsFavorited bool
}

// Viewer identifies the requesting user for read personalization. The zero
// value is an anonymous viewer.
type Viewer struct {
	UserID string
}

func (v Viewer) Anonymous() bool { return v.UserID == "" }

type Filters struct {
	Category string
	Search   string
}

type CreateParams struct {
	ID string
	EventInput
	Organizer   string
	OrganizerID string
}

type UpdateParams struct {
	EventInput
}

type Repository interface {
	// List returns matching events ordered by date ascending, with
	// projection fields computed for viewerID (empty = anonymous).
	List(ctx context.Context, filters Filters, viewerID string) ([]View, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	// Update replaces the editable fields only; counters, organizer, and
	// created_at are untouched.
	Update(ctx context.Context, id string, params UpdateParams) error
	Delete(ctx context.Context, id string) error
	// SetRSVP removes any existing RSVP for userID, stores status if it is
	// "going" or "interested", and recomputes both attendee counters from
	// the stored RSVPs, all as one atomic unit.
	SetRSVP(ctx context.Context, eventID, userID, status string) error
	SetFavorite(ctx context.Context, eventID, userID string, favorited bool) error
}

// OrganizerDirectory resolves the display username snapshotted onto events
// at creation.
type OrganizerDirectory interface {
	Username(ctx context.Context, userID string) (string, error)
}
