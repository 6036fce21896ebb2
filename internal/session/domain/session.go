package domain

import userdomain "xriepv1/client/internal/user/domain"

// Phase is the coarse state of a session derived from a Snapshot.
type Phase string

const (
	PhaseLoggedOut Phase = "logged_out"
	PhaseLoggingIn Phase = "logging_in"
	PhaseLoggedIn  Phase = "logged_in"
	PhaseError     Phase = "error"
)

// Snapshot is a copy of the session state. User is nil when logged out; whenever User is set, Token is non-empty.
type Snapshot struct {
	User      *userdomain.User
	Token     string
	IsLoading bool
	Error     string // message from the last failed login; empty otherwise
	// Version increases with every transition; listeners use it to drop out-of-order deliveries.
	Version uint64
}

// Phase derives the session phase. A pending login wins over everything else; a failed login with
// no user is PhaseError.
func (s Snapshot) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoggingIn
	case s.User != nil:
		return PhaseLoggedIn
	case s.Error != "":
		return PhaseError
	default:
		return PhaseLoggedOut
	}
}

// Persisted is the subset of the session written to storage. Loading and error state are never persisted.
type Persisted struct {
	User  *userdomain.User `json:"user"`
	Token *string          `json:"token"`
}
