package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/communitycal/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const eventColumns = `
e.id, e.title, e.description, e.category, e.date, e.time, e.location,
e.contact_info, e.max_capacity, e.tags, e.organizer, e.organizer_id,
e.attendees_going, e.attendees_interested, e.created_at, e.updated_at`

func scanEvent(row pgx.Row, extra ...any) (*events.Event, error) {
	var (
		event     events.Event
		date      pgtype.Date
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	dest := []any{
		&event.ID, &event.Title, &event.Description, &event.Category, &date,
		&event.Time, &event.Location, &event.ContactInfo, &event.MaxCapacity,
		&event.Tags, &event.Organizer, &event.OrganizerID,
		&event.AttendeesGoing, &event.AttendeesInterested, &createdAt, &updatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if date.Valid {
		event.Date = date.Time.Format("2006-01-02")
	}
	event.CreatedAt = createdAt.Time
	event.UpdatedAt = updatedAt.Time
	if event.Tags == nil {
		event.Tags = []string{}
	}
	return &event, nil
}

// likeEscaper neutralizes LIKE metacharacters so user-supplied search terms
// match literally instead of acting as patterns.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List returns events matching the filters in date order, with the two
// viewer projection fields computed in the query. The joins are keyed on the
// viewer, so no other user's RSVP or favorite rows ever leave the database.
func (r *EventRepository) List(ctx context.Context, filters events.Filters, viewerID string) ([]events.View, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`,
       COALESCE(vr.status, '') AS user_rsvp,
       (vf.user_id IS NOT NULL) AS is_favorited
  FROM events e
  LEFT JOIN event_rsvps vr ON vr.event_id = e.id AND vr.user_id = $1
  LEFT JOIN event_favorites vf ON vf.event_id = e.id AND vf.user_id = $1
 WHERE ($2 = '' OR e.category = $2)
   AND ($3 = '' OR e.title ILIKE '%' || $3 || '%' OR e.description ILIKE '%' || $3 || '%')
 ORDER BY e.date ASC, e.id ASC
`, viewerID, filters.Category, escapeLike(filters.Search))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	views := make([]events.View, 0)
	for rows.Next() {
		var (
			userRSVP    string
			isFavorited bool
		)
		event, err := scanEvent(rows, &userRSVP, &isFavorited)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		views = append(views, events.View{Event: *event, UserRSVP: userRSVP, IsFavorited: isFavorited})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return views, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.id = $1
`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (id, title, description, category, date, time, location,
                    contact_info, max_capacity, tags, organizer, organizer_id)
VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at
`,
		params.ID, params.Title, params.Description, params.Category, params.Date,
		params.Time, params.Location, params.ContactInfo, params.MaxCapacity,
		params.Tags, params.Organizer, params.OrganizerID,
	)

	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}
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
		Tags:        tags,
		Organizer:   params.Organizer,
		OrganizerID: params.OrganizerID,
		CreatedAt:   createdAt.Time,
		UpdatedAt:   updatedAt.Time,
	}, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.UpdateParams) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET title = $2, description = $3, category = $4, date = $5::date, time = $6,
       location = $7, contact_info = $8, max_capacity = $9, tags = $10,
       updated_at = now()
 WHERE id = $1
`,
		id, params.Title, params.Description, params.Category, params.Date,
		params.Time, params.Location, params.ContactInfo, params.MaxCapacity,
		params.Tags,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// Delete removes the event; RSVPs and favorites cascade with it.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// SetRSVP replaces the caller's RSVP and recomputes both attendee counters
// from the stored rows. The whole sequence runs in one transaction, so
// concurrent RSVPs on the same event cannot leave counters drifted; the
// RSVP rows stay the source of truth either way.
func (r *EventRepository) SetRSVP(ctx context.Context, eventID, userID, status string) error {
	root := &Repository{pool: r.pool, tx: r.tx}
	return root.WithTx(ctx, func(ctx context.Context, txRepo *Repository) error {
		return setRSVP(ctx, txRepo.Events().queryer(), eventID, userID, status)
	})
}

func setRSVP(ctx context.Context, q queryer, eventID, userID, status string) error {
	if _, err := q.Exec(ctx, `
DELETE FROM event_rsvps WHERE event_id = $1 AND user_id = $2
`, eventID, userID); err != nil {
		return fmt.Errorf("clear rsvp: %w", err)
	}

	if status != "" {
		if _, err := q.Exec(ctx, `
INSERT INTO event_rsvps (event_id, user_id, status) VALUES ($1, $2, $3)
`, eventID, userID, status); err != nil {
			if isPgErr(err, pgForeignKeyViolation) {
				return events.ErrNotFound
			}
			return fmt.Errorf("insert rsvp: %w", err)
		}
	}

	tag, err := q.Exec(ctx, `
UPDATE events
   SET attendees_going = (SELECT count(*) FROM event_rsvps WHERE event_id = $1 AND status = 'going'),
       attendees_interested = (SELECT count(*) FROM event_rsvps WHERE event_id = $1 AND status = 'interested')
 WHERE id = $1
`, eventID)
	if err != nil {
		return fmt.Errorf("recount rsvps: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) SetFavorite(ctx context.Context, eventID, userID string, favorited bool) error {
	if favorited {
		_, err := r.queryer().Exec(ctx, `
INSERT INTO event_favorites (event_id, user_id)
VALUES ($1, $2)
ON CONFLICT (event_id, user_id) DO NOTHING
`, eventID, userID)
		if err != nil {
			if isPgErr(err, pgForeignKeyViolation) {
				return events.ErrNotFound
			}
			return fmt.Errorf("add favorite: %w", err)
		}
		return nil
	}

	_, err := r.queryer().Exec(ctx, `
DELETE FROM event_favorites WHERE event_id = $1 AND user_id = $2
`, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}
