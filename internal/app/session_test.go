package app_test

import (
	"errors"
	"testing"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func sessionWithToken(token string) domain.Session {
	return domain.Session{Token: token, UserName: "Ana", UserEmail: "ana@x.com", UserID: "u1"}
}

func TestTokenUsable(t *testing.T) {
	tok := signedToken(t, "u1")
	if !app.TokenUsable(tok) {
		t.Fatalf("expected signed token to be usable")
	}
	for _, raw := range []string{"", "undefined", "null", "  ", "abc.def", "undefined "} {
		if app.TokenUsable(raw) {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	h := newHarness(t, app.Timing{})
	want := domain.Session{
		Token:     signedToken(t, "g1"),
		UserName:  "Guest",
		UserEmail: domain.GuestEmail,
		UserID:    "g1",
		Guest:     true,
	}
	if err := h.session.Save(h.ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := h.session.Load(h.ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if _, ok, _ := h.session.Room(h.ctx); ok {
		t.Fatalf("expected no room yet")
	}
	if err := h.session.SaveRoom(h.ctx, ownedRoom("R1", "ana@x.com")); err != nil {
		t.Fatalf("save room: %v", err)
	}
	room, ok, err := h.session.Room(h.ctx)
	if err != nil || !ok || room.Code != "R1" || len(room.Members) != 2 {
		t.Fatalf("unexpected room %+v ok=%v err=%v", room, ok, err)
	}
	if err := h.session.ForgetRoom(h.ctx); err != nil {
		t.Fatalf("forget room: %v", err)
	}
	if _, ok, _ := h.session.Room(h.ctx); ok {
		t.Fatalf("expected room forgotten")
	}
	if !h.session.Authenticated(h.ctx) {
		t.Fatalf("forgetting the room must keep the identity")
	}
}

func TestSessionTokenRequiresLogin(t *testing.T) {
	h := newHarness(t, app.Timing{})
	if _, err := h.session.Token(h.ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	h.login(t, "Ana", "ana@x.com", "u1")
	if tok, err := h.session.Token(h.ctx); err != nil || tok == "" {
		t.Fatalf("expected token, got %q err=%v", tok, err)
	}
}
