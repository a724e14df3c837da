package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/communitycal/server/internal/domain/ids"
	"github.com/communitycal/server/internal/sanitize"
)

type Service struct {
	repo       Repository
	organizers OrganizerDirectory
}

func NewService(repo Repository, organizers OrganizerDirectory) *Service {
	return &Service{repo: repo, organizers: organizers}
}

func ParseFilters(values url.Values) Filters {
	return Filters{
		Category: strings.TrimSpace(values.Get("category")),
		Search:   strings.TrimSpace(values.Get("search")),
	}
}

func (s *Service) List(ctx context.Context, filters Filters, viewer Viewer) ([]View, error) {
	return s.repo.List(ctx, filters, viewer.UserID)
}

func (s *Service) Create(ctx context.Context, input EventInput, ownerID string) (*Event, error) {
	input = sanitizeInput(input)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	organizer, err := s.organizers.Username(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve organizer: %w", err)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	return s.repo.Create(ctx, CreateParams{
		ID:          id,
		EventInput:  input,
		Organizer:   organizer,
		OrganizerID: ownerID,
	})
}

func (s *Service) Update(ctx context.Context, id string, input EventInput, callerID string) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.OrganizerID != callerID {
		return ErrForbidden
	}

	input = sanitizeInput(input)
	if err := input.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, UpdateParams{EventInput: input})
}

func (s *Service) Delete(ctx context.Context, id string, callerID string) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if event.OrganizerID != callerID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// SetRSVP moves the caller's RSVP for one event to status and returns the
// status as requested. "not_going" and "" both clear the RSVP.
func (s *Service) SetRSVP(ctx context.Context, eventID, callerID, status string) (string, error) {
	normalized, err := normalizeRSVP(status)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return "", err
	}

	if err := s.repo.SetRSVP(ctx, eventID, callerID, normalized); err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) SetFavorite(ctx context.Context, eventID, callerID string, favorited bool) error {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return err
	}
	return s.repo.SetFavorite(ctx, eventID, callerID, favorited)
}

// sanitizeInput strips HTML from free-text fields before validation. The
// description keeps safe formatting tags, everything else is plain text.
func sanitizeInput(input EventInput) EventInput {
	input.Title = strings.TrimSpace(sanitize.Text(input.Title))
	input.Description = strings.TrimSpace(sanitize.HTML(input.Description))
	input.Category = strings.TrimSpace(sanitize.Text(input.Category))
	input.Date = strings.TrimSpace(input.Date)
	input.Time = strings.TrimSpace(sanitize.Text(input.Time))
	input.Location = strings.TrimSpace(sanitize.Text(input.Location))
	input.ContactInfo = strings.TrimSpace(sanitize.Text(input.ContactInfo))
	input.Tags = sanitize.TextSlice(input.Tags)
	return input
}
