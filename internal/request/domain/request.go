package domain

import "xriepv1/client/internal/jsontime"

// Status is the lifecycle state of a phone-number request.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusProses  Status = "PROSES"
	StatusSelesai Status = "SELESAI"
	StatusGagal   Status = "GAGAL"
)

// Statuses lists every status in the order the admin dashboard offers them.
var Statuses = []Status{StatusPending, StatusProses, StatusSelesai, StatusGagal}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Request is a ticket asking an admin to process a WhatsApp number. The user listing omits
// UserID and Username.
type Request struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id,omitempty"`
	Username      string        `json:"username,omitempty"`
	NomorWhatsapp string        `json:"nomor_whatsapp"`
	Status        Status        `json:"status"`
	CreatedAt     jsontime.Time `json:"created_at"`
}
