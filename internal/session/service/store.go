// Package service holds the session store: the process-wide record of who is logged in, the bearer
// token that proves it, and the transitions between those states.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"xriepv1/client/internal/api"
	"xriepv1/client/internal/guard"
	"xriepv1/client/internal/security"
	"xriepv1/client/internal/session/domain"
	"xriepv1/client/internal/session/repository"
	"xriepv1/client/internal/telemetry"
	telemetrydomain "xriepv1/client/internal/telemetry/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

// Sentinel errors for the session store.
var (
	ErrLoginInFlight  = errors.New("session: a login is already in progress")
	ErrSessionExpired = errors.New("session: expired")
)

// loginFailedMessage is shown when the backend gave no detail.
const loginFailedMessage = "Login failed"

const defaultPersistTimeout = 5 * time.Second

// AuthAPI is the slice of the API client the store needs.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*userdomain.User, error)
	SetAuthToken(token string)
}

// Option configures a Store.
type Option func(*Store)

// WithNavigator sets where the store sends role-based and logout navigations.
func WithNavigator(n guard.Navigator) Option {
	return func(s *Store) { s.nav = n }
}

// WithEmitter sets the session event sink. Events are best-effort.
func WithEmitter(e telemetry.EventEmitter) Option {
	return func(s *Store) { s.emitter = e }
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPersistTimeout bounds each background write of the session record.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// WithClock overrides time.Now, used to judge whether a stored token has already expired.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type state struct {
	user      *userdomain.User
	token     string
	isLoading bool
	err       string
	deviceID  string
	version   uint64
}

// Store is the session store. All methods are safe for concurrent use.
type Store struct {
	api            AuthAPI
	repo           repository.Repository
	nav            guard.Navigator
	emitter        telemetry.EventEmitter
	logger         *zap.Logger
	persistTimeout time.Duration
	now            func() time.Time

	mu sync.Mutex
	st state

	loggingIn atomic.Bool
	loads     singleflight.Group

	listenersMu  sync.Mutex
	listeners    map[uint64]func(domain.Snapshot)
	nextListener uint64

	persistMu        sync.Mutex
	persistedVersion uint64

	pending sync.WaitGroup
}

// NewStore returns an empty (logged out) store. Call Hydrate before the first navigation decision.
func NewStore(authAPI AuthAPI, repo repository.Repository, opts ...Option) *Store {
	s := &Store{
		api:            authAPI,
		repo:           repo,
		logger:         zap.NewNop(),
		persistTimeout: defaultPersistTimeout,
		now:            time.Now,
		listeners:      make(map[uint64]func(domain.Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		User:      s.st.user.Clone(),
		Token:     s.st.token,
		IsLoading: s.st.isLoading,
		Error:     s.st.err,
		Version:   s.st.version,
	}
}

// Subscribe registers fn to be called with the new state after every transition. Calls happen outside
// the store's lock and may arrive out of order under concurrency; compare Snapshot.Version to drop
// stale ones. The returned func removes the listener.
func (s *Store) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// Hydrate loads the persisted session. A missing or unreadable record leaves the store logged out.
func (s *Store) Hydrate(ctx context.Context) {
	if s.repo == nil {
		return
	}
	rec, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("session: hydrate failed; starting logged out", zap.Error(err))
		return
	}
	if rec == nil {
		return
	}
	var token string
	if rec.Token != nil {
		token = *rec.Token
	}
	user := rec.User.Clone()
	if token == "" {
		if user != nil {
			s.logger.Warn("session: persisted user has no token; discarding", zap.String("user_id", user.ID))
		}
		user = nil
	}
	if user != nil {
		user.Normalize()
	}

	s.api.SetAuthToken(token)
	snap := s.update(func(st *state) bool {
		st.user = user
		st.token = token
		return true
	})
	s.notify(snap)
	s.logger.Debug("session: hydrated", zap.Bool("has_user", user != nil))
}

// Login exchanges credentials for a session. On failure the error message is recorded in the state
// (the backend's detail, or "Login failed") and the previous user and token are kept. A Login started
// while another is in flight returns ErrLoginInFlight without touching the state.
func (s *Store) Login(ctx context.Context, username, password, deviceID, deviceName string) error {
	if !s.loggingIn.CompareAndSwap(false, true) {
		return ErrLoginInFlight
	}
	defer s.loggingIn.Store(false)

	s.notify(s.update(func(st *state) bool {
		st.isLoading = true
		st.err = ""
		return true
	}))

	resp, err := s.api.Login(ctx, api.LoginRequest{
		Username:   username,
		Password:   password,
		DeviceID:   deviceID,
		DeviceName: deviceName,
	})
	if err == nil && resp.AccessToken == "" {
		err = errors.New("session: login response carried no access token")
	}
	if err != nil {
		msg := api.DetailOf(err, loginFailedMessage)
		s.notify(s.update(func(st *state) bool {
			st.isLoading = false
			st.err = msg
			return true
		}))
		s.logger.Info("session: login failed", zap.String("username", username), zap.Error(err))
		s.emit(ctx, &telemetrydomain.Event{
			Type:     telemetrydomain.EventLoginFailed,
			Username: username,
			DeviceID: deviceID,
			Detail:   msg,
		})
		return err
	}

	user := resp.User.Clone()
	user.Normalize()
	token := resp.AccessToken

	s.api.SetAuthToken(token)
	snap := s.update(func(st *state) bool {
		st.user = user
		st.token = token
		st.isLoading = false
		st.err = ""
		st.deviceID = deviceID
		return true
	})
	s.persist(snap)
	s.notify(snap)
	s.logger.Info("session: logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	s.emit(ctx, userEvent(telemetrydomain.EventLoginSucceeded, user, deviceID))
	s.navigate(guard.HomeFor(user))
	return nil
}

// Logout ends the session. The backend is told when a token exists; its failure is logged and ignored.
// Afterwards user and token are always cleared and the login screen is shown. Safe to repeat.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.st.token
	s.mu.Unlock()

	if token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Warn("session: remote logout failed", zap.Error(err))
		}
	}

	s.api.SetAuthToken("")
	var prev *userdomain.User
	var deviceID string
	snap := s.update(func(st *state) bool {
		prev, deviceID = st.user, st.deviceID
		st.user = nil
		st.token = ""
		return true
	})
	s.persist(snap)
	s.notify(snap)
	if prev != nil {
		s.emit(ctx, userEvent(telemetrydomain.EventLogout, prev, deviceID))
	}
	s.navigate(guard.RouteLogin)
}

// LoadUser refreshes the user from the backend using the stored token. Without a token it does
// nothing. Any failure, or a token whose expiry has already passed, ends the session and returns an
// error matching ErrSessionExpired. Concurrent calls for the same token share one request.
func (s *Store) LoadUser(ctx context.Context) error {
	s.mu.Lock()
	token := s.st.token
	s.mu.Unlock()
	if token == "" {
		return nil
	}

	if claims, err := security.InspectAccess(token); err == nil && claims.Expired(s.now()) {
		s.expire(ctx, token, "token expired")
		return ErrSessionExpired
	}

	v, err, _ := s.loads.Do(token, func() (any, error) {
		return s.api.Me(ctx, token)
	})
	if err != nil {
		s.expire(ctx, token, err.Error())
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	user := v.(*userdomain.User).Clone()
	user.Normalize()
	var deviceID string
	snap := s.update(func(st *state) bool {
		if st.token != token {
			return false
		}
		st.user = user
		deviceID = st.deviceID
		return true
	})
	if snap == nil {
		return nil
	}
	s.persist(snap)
	s.notify(snap)
	s.emit(ctx, userEvent(telemetrydomain.EventUserReloaded, user, deviceID))
	return nil
}

// HandleAuthError ends the session when err says the backend rejected the token (any 401). Screens
// pass their call errors through it. Reports whether the session was torn down.
func (s *Store) HandleAuthError(ctx context.Context, err error) bool {
	if !errors.Is(err, api.ErrAuthExpired) {
		return false
	}
	s.mu.Lock()
	token := s.st.token
	s.mu.Unlock()
	if token == "" {
		return false
	}
	return s.expire(ctx, token, api.DetailOf(err, "unauthorized"))
}

// ClearError resets the login error. Nothing else changes.
func (s *Store) ClearError() {
	s.notify(s.update(func(st *state) bool {
		if st.err == "" {
			return false
		}
		st.err = ""
		return true
	}))
}

// Flush waits for pending session writes and telemetry emits, or until ctx is done. Call it once the
// operations it should cover have returned.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// expire clears the session if it still belongs to token. A session replaced in the meantime (new
// login) is left alone.
func (s *Store) expire(ctx context.Context, token, detail string) bool {
	var prev *userdomain.User
	var deviceID string
	snap := s.update(func(st *state) bool {
		if st.token != token {
			return false
		}
		prev, deviceID = st.user, st.deviceID
		st.user = nil
		st.token = ""
		return true
	})
	if snap == nil {
		return false
	}
	s.api.SetAuthToken("")
	s.persist(snap)
	s.notify(snap)
	s.logger.Info("session: expired", zap.String("reason", detail))
	ev := userEvent(telemetrydomain.EventSessionExpired, prev, deviceID)
	ev.Detail = detail
	s.emit(ctx, ev)
	s.navigate(guard.RouteLogin)
	return true
}

// update applies fn under the lock. When fn reports a change the version is bumped and the new
// snapshot returned; otherwise nil.
func (s *Store) update(fn func(st *state) bool) *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(&s.st) {
		return nil
	}
	s.st.version++
	snap := s.snapshotLocked()
	return &snap
}

func (s *Store) notify(snap *domain.Snapshot) {
	if snap == nil {
		return
	}
	s.listenersMu.Lock()
	fns := make([]func(domain.Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		s.call(fn, *snap)
	}
}

func (s *Store) call(fn func(domain.Snapshot), snap domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session: listener panicked", zap.Any("panic", r))
		}
	}()
	snap.User = snap.User.Clone()
	fn(snap)
}

// persist writes snap in the background. Writes are serialized and a write older than the last one
// attempted is skipped. Failures are logged only.
func (s *Store) persist(snap *domain.Snapshot) {
	if s.repo == nil || snap == nil {
		return
	}
	rec := domain.Persisted{User: snap.User.Clone()}
	if snap.Token != "" {
		token := snap.Token
		rec.Token = &token
	}
	version := snap.Version

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.persistMu.Lock()
		defer s.persistMu.Unlock()
		if version <= s.persistedVersion {
			return
		}
		s.persistedVersion = version

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		if err := s.repo.Save(ctx, rec); err != nil {
			s.logger.Warn("session: persist failed", zap.Uint64("version", version), zap.Error(err))
		}
	}()
}

func (s *Store) emit(ctx context.Context, ev *telemetrydomain.Event) {
	if s.emitter == nil {
		return
	}
	done := telemetry.EmitAsync(s.emitter, ctx, ev)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		<-done
	}()
}

func (s *Store) navigate(route guard.Route) {
	if s.nav != nil {
		s.nav.Navigate(route)
	}
}

func userEvent(t telemetrydomain.EventType, u *userdomain.User, deviceID string) *telemetrydomain.Event {
	ev := &telemetrydomain.Event{Type: t, DeviceID: deviceID}
	if u != nil {
		ev.UserID = u.ID
		ev.Username = u.Username
		ev.Role = string(u.Role)
	}
	return ev
}
