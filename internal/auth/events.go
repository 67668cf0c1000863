package auth

import (
	"context"
	"time"
)

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Event is an auth state change for one user. It never carries tokens.
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// Publisher fans auth events out to the user's connected clients.
type Publisher interface {
	Publish(ctx context.Context, userID string, ev Event) error
}
