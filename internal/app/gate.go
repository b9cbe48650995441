package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Page names a view the router can mount.
type Page int

const (
	PageNotFound Page = iota
	PageAuth
	PageLogin
	PageSignup
	PageGuest
	PageHome
	PageRoom
	PageManageRoom
	PageGame
	PageLeaderboard
	PageLeaderboardManage
	PageLogout
	PageQuit
)

var pageNames = map[Page]string{
	PageNotFound:          "not-found",
	PageAuth:              "auth",
	PageLogin:             "login",
	PageSignup:            "signup",
	PageGuest:             "guest",
	PageHome:              "home",
	PageRoom:              "room",
	PageManageRoom:        "manage-room",
	PageGame:              "game",
	PageLeaderboard:       "leaderboard",
	PageLeaderboardManage: "leaderboard-manage",
	PageLogout:            "logout",
	PageQuit:              "quit",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return "page(" + strconv.Itoa(int(p)) + ")"
}

// Public reports whether the page belongs to the unauthenticated set.
func (p Page) Public() bool {
	switch p {
	case PageAuth, PageLogin, PageSignup, PageGuest:
		return true
	}
	return false
}

// Route is a resolved path.
type Route struct {
	Page     Page
	Path     string
	RoomCode string
	Question int
}

// Path helpers used when navigating.
const (
	PathRoot   = "/"
	PathAuth   = "/auth"
	PathLogin  = "/login"
	PathSignup = "/signup"
	PathGuest  = "/guest"
	PathHome   = "/home"
	PathLogout = "/logout"
	PathQuit   = "quit:"
)

func RoomPath(code string) string { return "/room/" + url.PathEscape(code) }

func ManageRoomPath(code string) string { return RoomPath(code) + "/manage" }

func LeaderboardPath(code string) string { return "/leaderboard/" + url.PathEscape(code) }

func ManageLeaderboardPath(code string) string { return LeaderboardPath(code) + "/manage" }

func GamePath(code string, n int) string {
	return fmt.Sprintf("/game/%s/%d", url.PathEscape(code), n)
}

// ParsePath maps a path onto a route without looking at the session.
func ParsePath(path string) Route {
	if path == PathQuit {
		return Route{Page: PageQuit, Path: path}
	}
	clean := "/" + strings.Trim(path, "/")
	parts := strings.Split(strings.Trim(clean, "/"), "/")
	route := Route{Page: PageNotFound, Path: clean}

	unescape := func(s string) string {
		if v, err := url.PathUnescape(s); err == nil {
			return v
		}
		return s
	}

	switch {
	case clean == "/":
		route.Page = PageHome
	case len(parts) == 1:
		switch parts[0] {
		case "auth":
			route.Page = PageAuth
		case "login":
			route.Page = PageLogin
		case "signup":
			route.Page = PageSignup
		case "guest":
			route.Page = PageGuest
		case "home":
			route.Page = PageHome
		case "logout":
			route.Page = PageLogout
		}
	case parts[0] == "room" && len(parts) == 2:
		route.Page, route.RoomCode = PageRoom, unescape(parts[1])
	case parts[0] == "room" && len(parts) == 3 && parts[2] == "manage":
		route.Page, route.RoomCode = PageManageRoom, unescape(parts[1])
	case parts[0] == "leaderboard" && len(parts) == 2:
		route.Page, route.RoomCode = PageLeaderboard, unescape(parts[1])
	case parts[0] == "leaderboard" && len(parts) == 3 && parts[2] == "manage":
		route.Page, route.RoomCode = PageLeaderboardManage, unescape(parts[1])
	case parts[0] == "game" && len(parts) == 3:
		n, err := strconv.Atoi(parts[2])
		if err == nil && n > 0 {
			route.Page, route.RoomCode, route.Question = PageGame, unescape(parts[1]), n
		}
	}
	if route.RoomCode == "" && route.Page != PageNotFound && needsRoom(route.Page) {
		route.Page = PageNotFound
	}
	return route
}

func needsRoom(p Page) bool {
	switch p {
	case PageRoom, PageManageRoom, PageGame, PageLeaderboard, PageLeaderboardManage:
		return true
	}
	return false
}

// Gate picks between the public and authenticated route sets. The session is
// read on every Resolve and never cached.
type Gate struct {
	session *SessionContext
}

func NewGate(session *SessionContext) *Gate {
	return &Gate{session: session}
}

// Resolve maps path to the page that may render for the current session.
func (g *Gate) Resolve(ctx context.Context, path string) Route {
	route := ParsePath(path)
	if route.Page == PageQuit || route.Page == PageNotFound {
		return route
	}
	authed := g.session.Authenticated(ctx)
	switch {
	case !authed && !route.Page.Public():
		// "/" and every protected path fall back to the auth page.
		return Route{Page: PageAuth, Path: PathAuth}
	case authed && route.Page.Public():
		return Route{Page: PageHome, Path: PathRoot}
	}
	return route
}
