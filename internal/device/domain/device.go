package domain

// Device identifies this install to the backend, which counts distinct ids against a user's max_devices.
type Device struct {
	ID   string
	Name string
}

// Fallbacks used when nothing better is known.
const (
	UnknownID   = "unknown-device"
	UnknownName = "Unknown Device"
)
