package guard

import (
	"context"
	"sync"

	sessiondomain "xriepv1/client/internal/session/domain"
)

// Source is the session store as seen by the Watcher.
type Source interface {
	Snapshot() sessiondomain.Snapshot
	Subscribe(fn func(sessiondomain.Snapshot)) (unsubscribe func())
}

// Watcher tracks the current route and re-evaluates it whenever the session's user, role or loading
// flag changes, forwarding redirects to the wrapped Navigator. It is itself a Navigator so the store's
// own navigations keep its idea of the current route in sync.
type Watcher struct {
	guard *Guard
	next  Navigator

	mu          sync.Mutex
	current     Route
	lastVersion uint64
	lastKey     watchKey
	seen        bool
	unsubscribe func()
}

type watchKey struct {
	hasUser bool
	userID  string
	role    string
	loading bool
}

func keyOf(snap sessiondomain.Snapshot) watchKey {
	k := watchKey{loading: snap.IsLoading}
	if snap.User != nil {
		k.hasUser = true
		k.userID = snap.User.ID
		k.role = string(snap.User.Role)
	}
	return k
}

// NewWatcher returns a Watcher starting on RouteIndex. next may be nil.
func NewWatcher(g *Guard, next Navigator) *Watcher {
	return &Watcher{guard: g, next: next, current: RouteIndex}
}

// Start subscribes to src and evaluates its current snapshot immediately.
func (w *Watcher) Start(ctx context.Context, src Source) {
	unsub := src.Subscribe(func(snap sessiondomain.Snapshot) {
		w.observe(ctx, snap, false)
	})
	w.mu.Lock()
	w.unsubscribe = unsub
	w.mu.Unlock()
	w.observe(ctx, src.Snapshot(), true)
}

// Stop unsubscribes from the source. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	unsub := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Route returns the current route.
func (w *Watcher) Route() Route {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Navigate records route as current and forwards it.
func (w *Watcher) Navigate(route Route) {
	w.mu.Lock()
	w.current = route
	w.mu.Unlock()
	if w.next != nil {
		w.next.Navigate(route)
	}
}

// Visit moves to route on the user's behalf, applying the guard first. Returns the route actually shown.
func (w *Watcher) Visit(ctx context.Context, route Route, snap sessiondomain.Snapshot) Route {
	if route == RouteIndex {
		if landing, ok := w.guard.Landing(ctx, snap); ok {
			route = landing
		}
	} else if d := w.guard.Admit(ctx, route, snap); !d.Allowed() {
		route = d.Redirect
	}
	w.Navigate(route)
	return route
}

func (w *Watcher) observe(ctx context.Context, snap sessiondomain.Snapshot, force bool) {
	w.mu.Lock()
	if w.seen && snap.Version < w.lastVersion {
		w.mu.Unlock()
		return
	}
	key := keyOf(snap)
	changed := !w.seen || key != w.lastKey
	w.seen = true
	w.lastVersion = snap.Version
	w.lastKey = key
	current := w.current
	w.mu.Unlock()
	if !changed && !force {
		return
	}

	var target Route
	if current == RouteIndex {
		landing, ok := w.guard.Landing(ctx, snap)
		if !ok {
			return
		}
		target = landing
	} else if d := w.guard.Admit(ctx, current, snap); !d.Allowed() {
		target = d.Redirect
	}
	if target != "" && target != current {
		w.Navigate(target)
	}
}
