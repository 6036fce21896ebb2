// Package screen holds the controllers behind each screen of the client: what happens when a screen
// opens, what its buttons do, and which messages it shows. Rendering is left to the caller.
package screen

import (
	"context"
	"time"

	"xriepv1/client/internal/api"
	requestdomain "xriepv1/client/internal/request/domain"
	sessiondomain "xriepv1/client/internal/session/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

// Alert titles.
const (
	TitleError   = "Error"
	TitleSuccess = "Sukses"
	TitleLogin   = "Login Gagal"
)

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(title, message string)
}

// AlerterFunc adapts a func to Alerter.
type AlerterFunc func(title, message string)

func (f AlerterFunc) Alert(title, message string) { f(title, message) }

// Session is the session store as used by screens.
type Session interface {
	Snapshot() sessiondomain.Snapshot
	Login(ctx context.Context, username, password, deviceID, deviceName string) error
	Logout(ctx context.Context)
	ClearError()
	HandleAuthError(ctx context.Context, err error) bool
}

// AdminAPI is the backend surface of the admin dashboard.
type AdminAPI interface {
	ListUsers(ctx context.Context) ([]userdomain.User, error)
	CreateUser(ctx context.Context, nu userdomain.NewUser) (*api.CreateUserResponse, error)
	DeleteUser(ctx context.Context, id string) error
	ListAllRequests(ctx context.Context) ([]requestdomain.Request, error)
	UpdateRequestStatus(ctx context.Context, id string, status requestdomain.Status) (*api.MessageResponse, error)
}

// UserAPI is the backend surface of the user screens.
type UserAPI interface {
	ListMyRequests(ctx context.Context) ([]requestdomain.Request, error)
	CreateRequest(ctx context.Context, nomor string) (*api.CreateRequestResponse, error)
	DownloadTikTok(ctx context.Context, videoURL string) (*api.MediaResult, error)
	DownloadInstagram(ctx context.Context, mediaURL string) (*api.MediaResult, error)
}

// FormatDate renders t the way the app shows dates (day/month/year, local time).
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2/1/2006")
}

// FormatDateTime renders t with the time of day.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2/1/2006 15.04")
}

// fail shows message unless err tore the session down, in which case the guard has already moved
// the user to the login screen.
func fail(ctx context.Context, s Session, alert Alerter, err error, message string) {
	if s.HandleAuthError(ctx, err) {
		return
	}
	alert.Alert(TitleError, message)
}
