package app_test

import (
	"errors"
	"testing"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

func unsortedBoard() domain.Leaderboard {
	return domain.Leaderboard{
		RoomName:   "Friday quiz",
		OwnerEmail: "a@x.com",
		Entries: []domain.LeaderboardEntry{
			{ID: "u3", Name: "Cy", Email: "cy@x.com", Points: 10},
			{ID: "u2", Name: "Ben", Email: "ben@x.com", Points: 300},
			{ID: "g1", Name: "Guest", Points: 200},
		},
	}
}

func TestLeaderboardKeepsServerOrder(t *testing.T) {
	h := newHarness(t, app.Timing{})
	h.login(t, "Ben", "ben@x.com", "u2")
	h.api.board = unsortedBoard()

	view := h.client.Leaderboard("R1", false, h.nav)
	if err := view.Open(h.ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	got := view.Standings().Entries
	for i, id := range []string{"u3", "u2", "g1"} {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i+1, id, got[i].ID)
		}
	}
	rank, entry := view.Mine(h.ctx)
	if rank != 2 || entry.Points != 300 {
		t.Fatalf("expected own rank 2 with 300 points, got %d %+v", rank, entry)
	}
	if err := view.BanEntry(h.ctx, "u3"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("plain view must not ban, got %v", err)
	}
}

func TestLeaderboardManageNeedsOwner(t *testing.T) {
	h := newHarness(t, app.Timing{})
	h.login(t, "Ben", "ben@x.com", "u2")
	h.api.board = unsortedBoard()

	view := h.client.Leaderboard("R1", true, h.nav)
	if err := view.Open(h.ctx); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !h.notes.sawError("Unauthorized Access") {
		t.Fatalf("expected Unauthorized Access toast")
	}
	if err := view.BanEntry(h.ctx, "u3"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if h.api.count("banUser") != 0 {
		t.Fatalf("ban reached the server")
	}
}

func TestLeaderboardOwnerBansByEntry(t *testing.T) {
	h := newHarness(t, app.Timing{})
	h.login(t, "Ana", "a@x.com", "u1")
	h.api.board = unsortedBoard()

	view := h.client.Leaderboard("R1", true, h.nav)
	if err := view.Open(h.ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := view.BanEntry(h.ctx, "u3"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if len(h.api.banned) != 1 || h.api.banned[0] != "cy@x.com" {
		t.Fatalf("expected ban by email, got %v", h.api.banned)
	}
	if err := view.BanEntry(h.ctx, "g1"); !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("entry without email: expected ErrWireSchema, got %v", err)
	}
	if err := view.BanEntry(h.ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
