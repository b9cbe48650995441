package app_test

import (
	"testing"

	"quizroom/internal/app"
)

func TestGateUnauthenticated(t *testing.T) {
	h := newHarness(t, app.Timing{})
	gate := h.client.Gate()

	cases := map[string]app.Page{
		"/":                    app.PageAuth,
		"/home":                app.PageAuth,
		"/room/AB12":           app.PageAuth,
		"/game/AB12/1":         app.PageAuth,
		"/leaderboard/AB12":    app.PageAuth,
		"/auth":                app.PageAuth,
		"/login":               app.PageLogin,
		"/signup":              app.PageSignup,
		"/guest":               app.PageGuest,
		"/definitely/not/here": app.PageNotFound,
	}
	for path, want := range cases {
		if got := gate.Resolve(h.ctx, path).Page; got != want {
			t.Fatalf("%s: expected %s, got %s", path, want, got)
		}
	}
}

func TestGateTreatsUndefinedTokenAsLoggedOut(t *testing.T) {
	h := newHarness(t, app.Timing{})
	for _, raw := range []string{"undefined", "null", "", "not-a-jwt"} {
		if err := h.session.Save(h.ctx, sessionWithToken(raw)); err != nil {
			t.Fatalf("save: %v", err)
		}
		if got := h.client.Gate().Resolve(h.ctx, "/room/AB12").Page; got != app.PageAuth {
			t.Fatalf("token %q: expected auth page, got %s", raw, got)
		}
	}
}

func TestGateAuthenticated(t *testing.T) {
	h := newHarness(t, app.Timing{})
	h.login(t, "Ana", "ana@x.com", "u1")
	gate := h.client.Gate()

	if got := gate.Resolve(h.ctx, "/login").Page; got != app.PageHome {
		t.Fatalf("expected public page to bounce home, got %s", got)
	}
	route := gate.Resolve(h.ctx, "/game/AB12/3")
	if route.Page != app.PageGame || route.RoomCode != "AB12" || route.Question != 3 {
		t.Fatalf("unexpected game route %+v", route)
	}
	if got := gate.Resolve(h.ctx, "/game/AB12/0").Page; got != app.PageNotFound {
		t.Fatalf("question 0 should not resolve, got %s", got)
	}
	if got := gate.Resolve(h.ctx, "/leaderboard/AB12/manage").Page; got != app.PageLeaderboardManage {
		t.Fatalf("expected manage leaderboard, got %s", got)
	}

	// The session is read on every resolution.
	if err := h.session.Clear(h.ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := gate.Resolve(h.ctx, "/room/AB12").Page; got != app.PageAuth {
		t.Fatalf("expected auth after logout, got %s", got)
	}
}

func TestPathBuildersRoundTrip(t *testing.T) {
	code := "a b/c"
	route := app.ParsePath(app.ManageRoomPath(code))
	if route.Page != app.PageManageRoom || route.RoomCode != code {
		t.Fatalf("expected escaped code to survive, got %+v", route)
	}
	if route := app.ParsePath(app.GamePath(code, 7)); route.Question != 7 || route.RoomCode != code {
		t.Fatalf("unexpected game route %+v", route)
	}
}
