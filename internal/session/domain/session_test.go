package domain

import (
	"testing"

	userdomain "xriepv1/client/internal/user/domain"
)

func TestSnapshot_Phase(t *testing.T) {
	u := &userdomain.User{ID: "1", Role: userdomain.RoleUser}
	testCases := []struct {
		name string
		snap Snapshot
		want Phase
	}{
		{"empty", Snapshot{}, PhaseLoggedOut},
		{"loading", Snapshot{IsLoading: true}, PhaseLoggingIn},
		{"loading with user", Snapshot{User: u, Token: "t", IsLoading: true}, PhaseLoggingIn},
		{"logged in", Snapshot{User: u, Token: "t"}, PhaseLoggedIn},
		{"failed login", Snapshot{Error: "Invalid credentials"}, PhaseError},
		{"failed relogin keeps user", Snapshot{User: u, Token: "t", Error: "Invalid credentials"}, PhaseLoggedIn},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.snap.Phase(); got != tc.want {
				t.Errorf("Phase = %q, want %q", got, tc.want)
			}
		})
	}
}
