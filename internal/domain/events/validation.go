package events

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 100
	maxDescriptionLength = 2000
	maxLocationLength    = 200
	maxContactInfoLength = 100
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type EventInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Location    string   `json:"location"`
	ContactInfo string   `json:"contact_info"`
	MaxCapacity int      `json:"max_capacity"`
	Tags        []string `json:"tags"`
}

func (in EventInput) Validate() error {
	if n := utf8.RuneCountInString(in.Title); n < minTitleLength || n > maxTitleLength {
		return ValidationError{Field: "title", Message: fmt.Sprintf("must be between %d and %d characters", minTitleLength, maxTitleLength)}
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLength {
		return ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)}
	}
	if in.Category == "" {
		return ValidationError{Field: "category", Message: "is required"}
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return ValidationError{Field: "date", Message: "must be a date in YYYY-MM-DD form"}
	}
	if utf8.RuneCountInString(in.Location) > maxLocationLength {
		return ValidationError{Field: "location", Message: fmt.Sprintf("must be at most %d characters", maxLocationLength)}
	}
	if utf8.RuneCountInString(in.ContactInfo) > maxContactInfoLength {
		return ValidationError{Field: "contact_info", Message: fmt.Sprintf("must be at most %d characters", maxContactInfoLength)}
	}
	if in.MaxCapacity < 0 {
		return ValidationError{Field: "max_capacity", Message: "must be non-negative"}
	}
	return nil
}

func normalizeRSVP(status string) (string, error) {
	switch status {
	case StatusGoing, StatusInterested:
		return status, nil
	case StatusNotGoing, "":
		return "", nil
	default:
		return "", ValidationError{Field: "rsvp_status", Message: `must be one of "going", "interested", "not_going", or empty`}
	}
}
