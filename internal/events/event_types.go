package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/stagepay/pos-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserLoggedIn       EventType = "user_logged_in"
	EventUserLoggedOut      EventType = "user_logged_out"
	EventTerminalRegistered EventType = "terminal_registered"
	EventTerminalLoggedOut  EventType = "terminal_logged_out"
	EventTillUserLoggedIn   EventType = "till_user_logged_in"
	EventTillUserLoggedOut  EventType = "till_user_logged_out"
	EventCustomerLoggedIn   EventType = "customer_logged_in"
	EventCustomerLoggedOut  EventType = "customer_logged_out"
)

// AllEventTypes lists every auth event type.
var AllEventTypes = []EventType{
	EventUserLoggedIn,
	EventUserLoggedOut,
	EventTerminalRegistered,
	EventTerminalLoggedOut,
	EventTillUserLoggedIn,
	EventTillUserLoggedOut,
	EventCustomerLoggedIn,
	EventCustomerLoggedOut,
}

// Actor identifies the principal an event is about.
type Actor struct {
	Type domain.SubjectType `json:"type"`
	ID   int64              `json:"id"`
}

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TillUserPayload describes a user logging in or out at a till.
type TillUserPayload struct {
	TillID int64  `json:"till_id"`
	UserID *int64 `json:"user_id,omitempty"`
	RoleID *int64 `json:"role_id,omitempty"`
	Forced bool   `json:"forced,omitempty"`
}

// UserSessionPayload describes a back-office session.
type UserSessionPayload struct {
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name"`
}
