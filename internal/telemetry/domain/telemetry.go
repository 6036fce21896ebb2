package domain

import "time"

// EventType names a session transition.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventLogout         EventType = "logout"
	EventSessionExpired EventType = "session_expired"
	EventUserReloaded   EventType = "user_reloaded"
)

// Event is a session telemetry event. Only Type is required.
type Event struct {
	Type      EventType
	UserID    string
	Username  string
	Role      string
	DeviceID  string
	Detail    string // failure message or other free text
	CreatedAt time.Time
}
