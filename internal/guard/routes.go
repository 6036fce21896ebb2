// Package guard decides where a session is allowed to be and redirects it when it is not.
package guard

import (
	sessiondomain "xriepv1/client/internal/session/domain"
	userdomain "xriepv1/client/internal/user/domain"
)

// Route is a screen path.
type Route string

const (
	RouteIndex               Route = "/"
	RouteLogin               Route = "/login"
	RouteAdminDashboard      Route = "/admin-dashboard"
	RouteUserHome            Route = "/user-home"
	RouteRequestNomor        Route = "/request-nomor"
	RouteRequestList         Route = "/request-list"
	RouteTikTokDownloader    Route = "/tiktok-downloader"
	RouteInstagramDownloader Route = "/instagram-downloader"
)

// Routes lists every screen route.
var Routes = []Route{
	RouteIndex, RouteLogin, RouteAdminDashboard, RouteUserHome, RouteRequestNomor,
	RouteRequestList, RouteTikTokDownloader, RouteInstagramDownloader,
}

var adminRoutes = map[Route]bool{RouteAdminDashboard: true}

var userRoutes = map[Route]bool{
	RouteUserHome:            true,
	RouteRequestNomor:        true,
	RouteRequestList:         true,
	RouteTikTokDownloader:    true,
	RouteInstagramDownloader: true,
}

// Navigator replaces the current screen with route.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route Route) { f(route) }

// HomeFor returns the screen a logged-in user lands on, or RouteLogin for nil.
func HomeFor(u *userdomain.User) Route {
	switch {
	case u == nil:
		return RouteLogin
	case u.IsAdmin():
		return RouteAdminDashboard
	default:
		return RouteUserHome
	}
}

// Decision is the outcome of admitting a session to a route. Redirect is empty when the route is allowed.
type Decision struct {
	Redirect Route
}

// Allowed reports whether the session may stay on the route.
func (d Decision) Allowed() bool { return d.Redirect == "" }

// Landing is where the start screen sends the session: nowhere while a login is in flight, then the
// login screen without a user, else the role's home.
func Landing(snap sessiondomain.Snapshot) (Route, bool) {
	if snap.IsLoading {
		return "", false
	}
	return HomeFor(snap.User), true
}

// Admit decides whether snap may be on route. Admin routes need an admin, user routes need any user, and
// the login screen sends an existing user home. Unknown routes are allowed.
func Admit(route Route, snap sessiondomain.Snapshot) Decision {
	switch {
	case adminRoutes[route] && !snap.User.IsAdmin():
		return Decision{Redirect: RouteLogin}
	case userRoutes[route] && snap.User == nil:
		return Decision{Redirect: RouteLogin}
	case route == RouteLogin && snap.User != nil:
		return Decision{Redirect: HomeFor(snap.User)}
	}
	return Decision{}
}
