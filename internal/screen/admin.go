package screen

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"xriepv1/client/internal/api"
	"xriepv1/client/internal/forms"
	"xriepv1/client/internal/guard"
	requestdomain "xriepv1/client/internal/request/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

// Tab is a section of the admin dashboard.
type Tab string

const (
	TabUsers    Tab = "users"
	TabRequests Tab = "requests"
)

// UserRow is a user as listed on the dashboard.
type UserRow struct {
	userdomain.User
	Expired bool
}

// AdminDashboard is the admin's screen: user management and the request queue.
type AdminDashboard struct {
	session Session
	api     AdminAPI
	alert   Alerter
	nav     guard.Navigator
	refresh time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	tab      Tab
	users    []userdomain.User
	requests []requestdomain.Request
}

// NewAdminDashboard returns the dashboard. refresh is the users tab reload interval; zero means 5s.
func NewAdminDashboard(s Session, a AdminAPI, alert Alerter, nav guard.Navigator, refresh time.Duration, logger *zap.Logger) *AdminDashboard {
	if refresh <= 0 {
		refresh = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminDashboard{
		session: s,
		api:     a,
		alert:   alert,
		nav:     nav,
		refresh: refresh,
		logger:  logger,
		now:     time.Now,
		tab:     TabUsers,
	}
}

// Mount checks the session is an admin's (otherwise the login screen is shown and false returned) and
// loads the current tab.
func (d *AdminDashboard) Mount(ctx context.Context) bool {
	if dec := guard.Admit(guard.RouteAdminDashboard, d.session.Snapshot()); !dec.Allowed() {
		d.nav.Navigate(dec.Redirect)
		return false
	}
	d.load(ctx, d.Tab())
	return true
}

// Tab returns the selected tab.
func (d *AdminDashboard) Tab() Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tab
}

// SelectTab switches tabs and loads the new one.
func (d *AdminDashboard) SelectTab(ctx context.Context, tab Tab) {
	d.mu.Lock()
	d.tab = tab
	d.mu.Unlock()
	d.load(ctx, tab)
}

// Refresh reloads the current tab.
func (d *AdminDashboard) Refresh(ctx context.Context) {
	d.load(ctx, d.Tab())
}

func (d *AdminDashboard) load(ctx context.Context, tab Tab) {
	if tab == TabRequests {
		_ = d.FetchRequests(ctx)
		return
	}
	_ = d.FetchUsers(ctx)
}

// AutoRefresh reloads the users every refresh interval while the users tab is selected, so online
// status stays current. It runs until ctx is done or stop is called; stop waits for it to exit.
func (d *AdminDashboard) AutoRefresh(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(d.refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if d.Tab() == TabUsers && d.session.Snapshot().User.IsAdmin() {
					_ = d.FetchUsers(ctx)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// FetchUsers reloads the user list.
func (d *AdminDashboard) FetchUsers(ctx context.Context) error {
	users, err := d.api.ListUsers(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		d.logger.Warn("screen: list users failed", zap.Error(err))
		fail(ctx, d.session, d.alert, err, "Gagal mengambil data users")
		return err
	}
	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	return nil
}

// Users returns the last loaded users, each marked if its active period has ended.
func (d *AdminDashboard) Users() []UserRow {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	rows := make([]UserRow, len(d.users))
	for i, u := range d.users {
		rows[i] = UserRow{User: *u.Clone(), Expired: u.Expired(now)}
	}
	return rows
}

// FetchRequests reloads every user's requests, newest first.
func (d *AdminDashboard) FetchRequests(ctx context.Context) error {
	reqs, err := d.api.ListAllRequests(ctx)
	if err != nil {
		d.logger.Warn("screen: list requests failed", zap.Error(err))
		fail(ctx, d.session, d.alert, err, "Gagal mengambil data requests")
		return err
	}
	d.mu.Lock()
	d.requests = reqs
	d.mu.Unlock()
	return nil
}

// Requests returns the last loaded requests.
func (d *AdminDashboard) Requests() []requestdomain.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]requestdomain.Request(nil), d.requests...)
}

// CreateUser validates the form, creates the account and reloads the users. The backend's detail
// (e.g. "Username already exists") is shown when it gives one.
func (d *AdminDashboard) CreateUser(ctx context.Context, form forms.NewUser) error {
	nu, err := form.Build()
	if err != nil {
		d.alert.Alert(TitleError, err.Error())
		return err
	}
	if _, err := d.api.CreateUser(ctx, nu); err != nil {
		fail(ctx, d.session, d.alert, err, api.DetailOf(err, "Gagal membuat user"))
		return err
	}
	d.alert.Alert(TitleSuccess, "User berhasil dibuat")
	_ = d.FetchUsers(ctx)
	return nil
}

// DeleteUser removes the account and reloads the users.
func (d *AdminDashboard) DeleteUser(ctx context.Context, id string) error {
	if err := d.api.DeleteUser(ctx, id); err != nil {
		fail(ctx, d.session, d.alert, err, "Gagal menghapus user")
		return err
	}
	d.alert.Alert(TitleSuccess, "User berhasil dihapus")
	_ = d.FetchUsers(ctx)
	return nil
}

// UpdateStatus sets a request's status and reloads the requests. No alert on success.
func (d *AdminDashboard) UpdateStatus(ctx context.Context, id string, status requestdomain.Status) error {
	if err := forms.Validate(forms.StatusUpdate{RequestID: id, Status: string(status)}); err != nil {
		d.alert.Alert(TitleError, err.Error())
		return err
	}
	if _, err := d.api.UpdateRequestStatus(ctx, id, status); err != nil {
		fail(ctx, d.session, d.alert, err, "Gagal update status")
		return err
	}
	_ = d.FetchRequests(ctx)
	return nil
}

// Logout ends the session.
func (d *AdminDashboard) Logout(ctx context.Context) {
	d.session.Logout(ctx)
}
