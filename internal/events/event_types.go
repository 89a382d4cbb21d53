package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordChanged        EventType = "password_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, userID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// PasswordResetRequestedPayload carries what the mailer needs. Token is secret
// and must never be logged.
type PasswordResetRequestedPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"-"`
}

// PasswordChangedPayload payload.
type PasswordChangedPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}
