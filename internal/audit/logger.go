// Package audit records who changed which event, separate from request
// logging, so organizer actions can be reviewed after the fact.
package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Entry is a single audit record for a mutating calendar action.
type Entry struct {
	Action    string // "event.create", "event.update", "event.delete", "event.rsvp", "event.favorite"
	UserID    string
	EventID   string
	IPAddress string
	Status    string // "success" or "failure"
	Detail    string
}

// Logger writes structured audit entries through zerolog.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "audit").Logger()}
}

// Log writes one audit entry. Failures carry the detail; successes usually
// leave it empty.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}

	event := l.log.Info()
	if entry.Status == "failure" {
		event = l.log.Warn()
	}
	event.
		Time("at", time.Now().UTC()).
		Str("action", entry.Action).
		Str("user_id", entry.UserID).
		Str("event_id", entry.EventID).
		Str("ip", entry.IPAddress).
		Str("status", entry.Status)
	if entry.Detail != "" {
		event = event.Str("detail", entry.Detail)
	}
	event.Msg("audit")
}

// Success records a successful mutation performed over HTTP.
func (l *Logger) Success(r *http.Request, action, userID, eventID string) {
	l.Log(Entry{
		Action:    action,
		UserID:    userID,
		EventID:   eventID,
		IPAddress: clientIP(r),
		Status:    "success",
	})
}

// Failure records a rejected or failed mutation.
func (l *Logger) Failure(r *http.Request, action, userID, eventID string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	l.Log(Entry{
		Action:    action,
		UserID:    userID,
		EventID:   eventID,
		IPAddress: clientIP(r),
		Status:    "failure",
		Detail:    detail,
	})
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
