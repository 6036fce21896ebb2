// Package apitest runs an in-process xriepv1 backend for tests: the same routes, status codes and
// detail messages as the real service, backed by memory.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"xriepv1/client/internal/api"
	requestdomain "xriepv1/client/internal/request/domain"
	"xriepv1/client/internal/security"
	userdomain "xriepv1/client/internal/user/domain"
)

// DefaultSecret signs access tokens unless the backend is built with another.
const DefaultSecret = "xriepv1-super-secret-key-2026"

// Seeded admin credentials.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

// naiveLayout is how the backend renders timestamps: UTC without an offset.
const naiveLayout = "2006-01-02T15:04:05.999999"

type account struct {
	id           string
	username     string
	passwordHash string
	role         userdomain.Role
	isActive     bool
	activeUntil  *time.Time
	maxDevices   int
	isOnline     bool
	createdAt    time.Time
}

type request struct {
	id        string
	userID    string
	nomor     string
	status    requestdomain.Status
	createdAt time.Time
}

// Backend is the fake service. Its zero value is not usable; call New.
type Backend struct {
	hasher *security.Hasher
	tokens *security.TokenProvider
	router *mux.Router

	mu       sync.Mutex
	now      func() time.Time
	accounts map[string]*account
	devices  map[string]map[string]string // user id -> device id -> device name
	requests []*request
	calls    map[string]int
}

// New returns a backend holding only the default admin (no expiry, 999 devices).
func New() *Backend {
	b := &Backend{
		hasher:   security.NewHasher(bcrypt.MinCost),
		tokens:   security.NewTokenProvider([]byte(DefaultSecret), 0),
		now:      time.Now,
		accounts: make(map[string]*account),
		devices:  make(map[string]map[string]string),
		calls:    make(map[string]int),
	}
	b.router = b.routes()
	if _, err := b.AddUser(AdminUsername, AdminPassword, userdomain.RoleAdmin, nil, 999); err != nil {
		panic(err)
	}
	return b
}

// NewServer starts b on an httptest server that is closed when t finishes.
func NewServer(t testing.TB) (*Backend, *httptest.Server) {
	t.Helper()
	b := New()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.countCalls)
	r.HandleFunc(api.PathLogin, b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(api.PathLogout, b.handleLogout).Methods(http.MethodPost)
	r.HandleFunc(api.PathMe, b.handleMe).Methods(http.MethodGet)
	r.HandleFunc(api.PathAdminUsers, b.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc(api.PathAdminUsers, b.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc(api.PathAdminUsers+"/{id}", b.handleDeleteUser).Methods(http.MethodDelete)
	r.HandleFunc(api.PathAdminRequests, b.handleListAllRequests).Methods(http.MethodGet)
	r.HandleFunc(api.PathAdminRequests+"/{id}/status", b.handleUpdateStatus).Methods(http.MethodPut)
	r.HandleFunc(api.PathUserRequests, b.handleCreateRequest).Methods(http.MethodPost)
	r.HandleFunc(api.PathUserRequests, b.handleListMyRequests).Methods(http.MethodGet)
	r.HandleFunc(api.PathDownloadTikTok, b.handleTikTok).Methods(http.MethodPost)
	r.HandleFunc(api.PathDownloadInstagram, b.handleInstagram).Methods(http.MethodPost)
	return r
}

func (b *Backend) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				key = r.Method + " " + tmpl
			}
		}
		b.mu.Lock()
		b.calls[key]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Calls returns how many requests hit "METHOD /path/template", e.g. "GET /api/auth/me".
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// SetClock replaces the backend's notion of now.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// AddUser creates an account directly and returns its id.
func (b *Backend) AddUser(username, password string, role userdomain.Role, activeUntil *time.Time, maxDevices int) (string, error) {
	hash, err := b.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.byUsername(username) != nil {
		return "", fmt.Errorf("apitest: username %q exists", username)
	}
	acct := &account{
		id:           uuid.NewString(),
		username:     username,
		passwordHash: hash,
		role:         role,
		isActive:     true,
		activeUntil:  activeUntil,
		maxDevices:   maxDevices,
		createdAt:    b.now().UTC(),
	}
	b.accounts[acct.id] = acct
	return acct.id, nil
}

// SetActive enables or disables an account.
func (b *Backend) SetActive(id string, active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acct := b.accounts[id]; acct != nil {
		acct.isActive = active
	}
}

// Token issues an access token for an existing account, as a successful login would.
func (b *Backend) Token(id string) (string, error) {
	b.mu.Lock()
	acct := b.accounts[id]
	b.mu.Unlock()
	if acct == nil {
		return "", fmt.Errorf("apitest: no user %q", id)
	}
	token, _, err := b.tokens.IssueAccess(acct.id, string(acct.role))
	return token, err
}

// Devices returns the device ids registered for a user.
func (b *Backend) Devices(id string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.devices[id]))
	for d := range b.devices[id] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// UserID returns the id of the account named username.
func (b *Backend) UserID(username string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.byUsername(username); a != nil {
		return a.id, true
	}
	return "", false
}

// RemoveUser deletes an account and its devices. Reports whether it existed.
func (b *Backend) RemoveUser(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, found := b.accounts[id]
	delete(b.accounts, id)
	delete(b.devices, id)
	return found
}

// AddRequest files a PENDING request for a user and returns its id.
func (b *Backend) AddRequest(userID, nomor string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.accounts[userID] == nil {
		return "", fmt.Errorf("apitest: no user %q", userID)
	}
	req := &request{
		id:        uuid.NewString(),
		userID:    userID,
		nomor:     nomor,
		status:    requestdomain.StatusPending,
		createdAt: b.now().UTC(),
	}
	b.requests = append(b.requests, req)
	return req.id, nil
}

// Requests returns the ids of every request, newest first.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []string
	for _, req := range b.newestFirst("") {
		ids = append(ids, req.id)
	}
	return ids
}

func (b *Backend) byUsername(username string) *account {
	for _, a := range b.accounts {
		if a.username == username {
			return a
		}
	}
	return nil
}

// caller resolves the bearer token. ok is false when no Authorization header was sent.
func (b *Backend) caller(r *http.Request) (acct *account, ok bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return nil, false
	}
	userID, _, err := b.tokens.ValidateAccess(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return nil, true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accounts[userID], true
}

func (b *Backend) requireAdmin(w http.ResponseWriter, r *http.Request) (*account, bool) {
	acct, ok := b.caller(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No token provided")
		return nil, false
	}
	if acct == nil || acct.role != userdomain.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Admin access required")
		return nil, false
	}
	return acct, true
}

type loginBody struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	DeviceID   *string `json:"device_id"`
	DeviceName *string `json:"device_name"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceID == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	deviceName := "Unknown Device"
	if body.DeviceName != nil {
		deviceName = *body.DeviceName
	}

	b.mu.Lock()
	acct := b.byUsername(body.Username)
	b.mu.Unlock()
	if acct == nil || !b.hasher.Matches(acct.passwordHash, body.Password) {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	b.mu.Lock()
	now := b.now().UTC()
	switch {
	case !acct.isActive:
		b.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "Account is disabled")
		return
	case acct.activeUntil != nil && acct.activeUntil.Before(now):
		b.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "Account has expired")
		return
	}
	devs := b.devices[acct.id]
	if _, known := devs[*body.DeviceID]; !known && len(devs) >= acct.maxDevices {
		b.mu.Unlock()
		writeDetail(w, http.StatusForbidden, fmt.Sprintf("Maximum devices (%d) reached", acct.maxDevices))
		return
	}
	if devs == nil {
		devs = make(map[string]string)
		b.devices[acct.id] = devs
	}
	if _, known := devs[*body.DeviceID]; !known {
		devs[*body.DeviceID] = deviceName
	}
	acct.isOnline = true
	out := b.userOut(acct, true)
	b.mu.Unlock()

	token, _, err := b.tokens.IssueAccess(acct.id, string(acct.role))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         out,
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	h := r.Header.Get("Authorization")
	if h == "" {
		writeDetail(w, http.StatusUnauthorized, "No token provided")
		return
	}
	userID, _, err := b.tokens.ValidateAccess(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	b.mu.Lock()
	if acct := b.accounts[userID]; acct != nil {
		acct.isOnline = false
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	acct, ok := b.caller(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No token provided")
		return
	}
	if acct == nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	b.mu.Lock()
	out := b.userOut(acct, true)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

type createUserBody struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	MasaAktifHari *int   `json:"masa_aktif_hari"`
	MaxDevices    *int   `json:"max_devices"`
}

func (b *Backend) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	var body createUserBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	days, maxDevices := userdomain.DefaultMasaAktifHari, userdomain.DefaultMaxDevices
	if body.MasaAktifHari != nil {
		days = *body.MasaAktifHari
	}
	if body.MaxDevices != nil {
		maxDevices = *body.MaxDevices
	}

	b.mu.Lock()
	taken := b.byUsername(body.Username) != nil
	until := b.now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	b.mu.Unlock()
	if taken {
		writeDetail(w, http.StatusBadRequest, "Username already exists")
		return
	}
	id, err := b.AddUser(body.Username, body.Password, userdomain.RoleUser, &until, maxDevices)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Username already exists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":       id,
		"username": body.Username,
		"message":  "User created successfully",
	})
}

func (b *Backend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	b.mu.Lock()
	accts := make([]*account, 0, len(b.accounts))
	for _, a := range b.accounts {
		if a.role == userdomain.RoleUser {
			accts = append(accts, a)
		}
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].createdAt.Before(accts[j].createdAt) })
	out := make([]userOut, 0, len(accts))
	for _, a := range accts {
		out = append(out, b.userOut(a, false))
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	if !b.RemoveUser(mux.Vars(r)["id"]) {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (b *Backend) handleListAllRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	b.mu.Lock()
	out := make([]map[string]any, 0, len(b.requests))
	for _, req := range b.newestFirst("") {
		username := "Unknown"
		if a := b.accounts[req.userID]; a != nil {
			username = a.username
		}
		out = append(out, map[string]any{
			"id":             req.id,
			"user_id":        req.userID,
			"username":       username,
			"nomor_whatsapp": req.nomor,
			"status":         req.status,
			"created_at":     req.createdAt.Format(naiveLayout),
		})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	var found bool
	for _, req := range b.requests {
		if req.id == id {
			req.status = requestdomain.Status(body.Status)
			found = true
			break
		}
	}
	b.mu.Unlock()
	if !found {
		writeDetail(w, http.StatusNotFound, "Request not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated successfully"})
}

func (b *Backend) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	acct, ok := b.caller(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No token provided")
		return
	}
	if acct == nil || acct.role != userdomain.RoleUser {
		writeDetail(w, http.StatusForbidden, "User access required")
		return
	}
	var body struct {
		NomorWhatsapp *string `json:"nomor_whatsapp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NomorWhatsapp == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	id, err := b.AddRequest(acct.id, *body.NomorWhatsapp)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "message": "Request created successfully"})
}

func (b *Backend) handleListMyRequests(w http.ResponseWriter, r *http.Request) {
	acct, ok := b.caller(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "No token provided")
		return
	}
	if acct == nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	b.mu.Lock()
	out := make([]map[string]any, 0)
	for _, req := range b.newestFirst(acct.id) {
		out = append(out, map[string]any{
			"id":             req.id,
			"nomor_whatsapp": req.nomor,
			"status":         req.status,
			"created_at":     req.createdAt.Format(naiveLayout),
		})
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleTikTok(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "TikTok download mock - In production, this would return video URL",
		"video_url": "https://example.com/mock-video.mp4",
	})
}

func (b *Backend) handleInstagram(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Instagram download mock - In production, this would return media URL",
		"media_url": "https://example.com/mock-image.jpg",
	})
}

// newestFirst returns requests (all, or one user's) sorted by creation time descending. Caller holds mu.
func (b *Backend) newestFirst(userID string) []*request {
	out := make([]*request, 0, len(b.requests))
	for _, req := range b.requests {
		if userID == "" || req.userID == userID {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].createdAt.After(out[j].createdAt) })
	return out
}

type userOut struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Role            string  `json:"role,omitempty"`
	IsActive        bool    `json:"is_active"`
	MasaAktifHingga *string `json:"masa_aktif_hingga"`
	MaxDevices      int     `json:"max_devices"`
	CurrentDevices  int     `json:"current_devices"`
	IsOnline        bool    `json:"is_online"`
}

// userOut renders an account; listings leave out the role. Caller holds mu.
func (b *Backend) userOut(a *account, withRole bool) userOut {
	out := userOut{
		ID:             a.id,
		Username:       a.username,
		IsActive:       a.isActive,
		MaxDevices:     a.maxDevices,
		CurrentDevices: len(b.devices[a.id]),
		IsOnline:       a.isOnline,
	}
	if withRole {
		out.Role = string(a.role)
	}
	if a.activeUntil != nil {
		s := a.activeUntil.UTC().Format(naiveLayout)
		out.MasaAktifHingga = &s
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
