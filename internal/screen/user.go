package screen

import (
	"context"

	"go.uber.org/zap"

	"xriepv1/client/internal/api"
	"xriepv1/client/internal/forms"
	"xriepv1/client/internal/guard"
	requestdomain "xriepv1/client/internal/request/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

// MenuItem is an entry of the user home menu.
type MenuItem struct {
	Title string
	Route guard.Route
}

// Menu is the user home menu, in display order.
var Menu = []MenuItem{
	{Title: "Request Nomor", Route: guard.RouteRequestNomor},
	{Title: "TikTok Downloader", Route: guard.RouteTikTokDownloader},
	{Title: "Instagram Downloader", Route: guard.RouteInstagramDownloader},
	{Title: "Daftar Request", Route: guard.RouteRequestList},
}

// UserHome is the regular user's landing screen.
type UserHome struct {
	session Session
	nav     guard.Navigator
}

// NewUserHome returns the user home screen.
func NewUserHome(s Session, nav guard.Navigator) *UserHome {
	return &UserHome{session: s, nav: nav}
}

// Account returns the logged in user, or nil (after redirecting to login) when there is none.
func (h *UserHome) Account() *userdomain.User {
	snap := h.session.Snapshot()
	if dec := guard.Admit(guard.RouteUserHome, snap); !dec.Allowed() {
		h.nav.Navigate(dec.Redirect)
		return nil
	}
	return snap.User
}

// Open navigates to a menu entry.
func (h *UserHome) Open(item MenuItem) {
	h.nav.Navigate(item.Route)
}

// Logout ends the session.
func (h *UserHome) Logout(ctx context.Context) {
	h.session.Logout(ctx)
}

// RequestNomor is the screen for asking an admin to repair a WhatsApp number.
type RequestNomor struct {
	session Session
	api     UserAPI
	alert   Alerter
}

// NewRequestNomor returns the request screen.
func NewRequestNomor(s Session, a UserAPI, alert Alerter) *RequestNomor {
	return &RequestNomor{session: s, api: a, alert: alert}
}

// Submit validates nomor and files the request.
func (r *RequestNomor) Submit(ctx context.Context, nomor string) (*api.CreateRequestResponse, error) {
	if err := forms.Validate(forms.RequestNomor{NomorWhatsapp: nomor}); err != nil {
		r.alert.Alert(TitleError, err.Error())
		return nil, err
	}
	resp, err := r.api.CreateRequest(ctx, nomor)
	if err != nil {
		fail(ctx, r.session, r.alert, err, "Gagal mengirim request")
		return nil, err
	}
	r.alert.Alert(TitleSuccess, "Request berhasil dikirim")
	return resp, nil
}

// RequestList shows the user's own requests.
type RequestList struct {
	session Session
	api     UserAPI
	logger  *zap.Logger
}

// NewRequestList returns the request list screen.
func NewRequestList(s Session, a UserAPI, logger *zap.Logger) *RequestList {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestList{session: s, api: a, logger: logger}
}

// Load fetches the requests in the order the backend returns them. Failures are logged, not alerted.
func (l *RequestList) Load(ctx context.Context) ([]requestdomain.Request, error) {
	reqs, err := l.api.ListMyRequests(ctx)
	if err != nil {
		l.session.HandleAuthError(ctx, err)
		l.logger.Warn("screen: fetch requests failed", zap.Error(err))
		return nil, err
	}
	return reqs, nil
}

// Platform selects a downloader.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// Downloader is the TikTok or Instagram downloader screen. The backend only returns a mock descriptor.
type Downloader struct {
	platform Platform
	session  Session
	api      UserAPI
	alert    Alerter
}

// NewDownloader returns the downloader screen for platform.
func NewDownloader(p Platform, s Session, a UserAPI, alert Alerter) *Downloader {
	return &Downloader{platform: p, session: s, api: a, alert: alert}
}

// Submit validates the link and asks the backend for the media.
func (d *Downloader) Submit(ctx context.Context, link string) (*api.MediaResult, error) {
	var (
		err     error
		call    = d.api.DownloadTikTok
		failMsg = "Gagal memproses video"
	)
	if d.platform == PlatformInstagram {
		err = forms.Validate(forms.Instagram{URL: link})
		call, failMsg = d.api.DownloadInstagram, "Gagal memproses media"
	} else {
		err = forms.Validate(forms.TikTok{URL: link})
	}
	if err != nil {
		d.alert.Alert(TitleError, err.Error())
		return nil, err
	}
	res, err := call(ctx, link)
	if err != nil {
		fail(ctx, d.session, d.alert, err, failMsg)
		return nil, err
	}
	return res, nil
}
