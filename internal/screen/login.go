package screen

import (
	"context"
	"errors"

	devicedomain "xriepv1/client/internal/device/domain"
	"xriepv1/client/internal/forms"
	"xriepv1/client/internal/guard"
	"xriepv1/client/internal/session/service"
)

// Login is the login screen.
type Login struct {
	session Session
	device  devicedomain.Device
	alert   Alerter
	nav     guard.Navigator
}

// NewLogin returns the login screen for the given device.
func NewLogin(s Session, device devicedomain.Device, alert Alerter, nav guard.Navigator) *Login {
	return &Login{session: s, device: device, alert: alert, nav: nav}
}

// Mount sends an already logged in user to their home screen. Reports whether it redirected.
func (l *Login) Mount() bool {
	snap := l.session.Snapshot()
	if snap.User == nil {
		return false
	}
	l.nav.Navigate(guard.HomeFor(snap.User))
	return true
}

// Submit validates the form and logs in. A failed login is shown as a "Login Gagal" alert carrying the
// session's error, which is then cleared. Navigation on success is done by the session.
func (l *Login) Submit(ctx context.Context, username, password string) error {
	if err := forms.Validate(forms.Login{Username: username, Password: password}); err != nil {
		l.alert.Alert(TitleError, err.Error())
		return err
	}
	err := l.session.Login(ctx, username, password, l.device.ID, l.device.Name)
	if err == nil || errors.Is(err, service.ErrLoginInFlight) {
		return err
	}
	if msg := l.session.Snapshot().Error; msg != "" {
		l.alert.Alert(TitleLogin, msg)
		l.session.ClearError()
	}
	return err
}
