package app_test

import (
	"testing"
	"time"

	"quizroom/internal/app"
)

func TestFeedDropsStaleTickets(t *testing.T) {
	feed := app.NewFeed[string]()
	slow := feed.Ticket()
	fast := feed.Ticket()

	if !feed.Apply(fast, "new") {
		t.Fatalf("expected newer ticket to apply")
	}
	if feed.Apply(slow, "old") {
		t.Fatalf("expected older ticket to be dropped")
	}
	if v, _ := feed.Get(); v != "new" {
		t.Fatalf("expected new, got %q", v)
	}

	// Set invalidates tickets issued before it.
	pending := feed.Ticket()
	feed.Set("reset")
	if feed.Apply(pending, "late") {
		t.Fatalf("expected ticket issued before Set to be dropped")
	}
}

func TestFeedApplyAtKeepsNewest(t *testing.T) {
	feed := app.NewFeed[int]()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !feed.ApplyAt(base, 1) {
		t.Fatalf("first stamped write should apply")
	}
	if feed.ApplyAt(base.Add(-time.Second), 0) {
		t.Fatalf("older frame should be ignored")
	}
	if feed.ApplyAt(base, 2) {
		t.Fatalf("same timestamp should be ignored")
	}
	if !feed.ApplyAt(base.Add(time.Second), 3) {
		t.Fatalf("newer frame should apply")
	}
	if v, _ := feed.Get(); v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
}

func TestFeedSubscribeGetsCurrentAndLatest(t *testing.T) {
	feed := app.NewFeed[int]()
	feed.Set(1)
	ch, cancel := feed.Subscribe()
	defer cancel()

	if v := <-ch; v != 1 {
		t.Fatalf("expected current value first, got %d", v)
	}
	// A slow reader only loses intermediate values, never the latest.
	for i := 2; i <= 10; i++ {
		feed.Set(i)
	}
	var last int
	for len(ch) > 0 {
		last = <-ch
	}
	if last != 10 {
		t.Fatalf("expected latest value 10, got %d", last)
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}
