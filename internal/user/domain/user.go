package domain

import (
	"time"

	"xriepv1/client/internal/jsontime"
)

// Role is the account role assigned by the backend.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the account as returned by the backend. It is replaced wholesale on login and reload.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	// Role is omitted by the admin user listing; see Normalize.
	Role            Role           `json:"role,omitempty"`
	IsActive        bool           `json:"is_active"`
	MasaAktifHingga *jsontime.Time `json:"masa_aktif_hingga"` // nil for accounts without expiry
	MaxDevices      int            `json:"max_devices"`
	CurrentDevices  int            `json:"current_devices"`
	IsOnline        bool           `json:"is_online"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Normalize fills in a missing role with RoleUser. The backend only lists role=user accounts and
// leaves the field out of listings.
func (u *User) Normalize() {
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// Expired reports whether the account's active period ended before now.
func (u *User) Expired(now time.Time) bool {
	return u.MasaAktifHingga != nil && !u.MasaAktifHingga.IsZero() && u.MasaAktifHingga.Before(now)
}

// Clone returns a deep copy of u, or nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.MasaAktifHingga != nil {
		t := *u.MasaAktifHingga
		c.MasaAktifHingga = &t
	}
	return &c
}

// NewUser is the admin form for creating an account.
type NewUser struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	MasaAktifHari int    `json:"masa_aktif_hari"`
	MaxDevices    int    `json:"max_devices"`
}

// Defaults applied by the admin dashboard when the fields are left empty.
const (
	DefaultMasaAktifHari = 30
	DefaultMaxDevices    = 3
)
