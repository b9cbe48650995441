package app

import (
	"context"
	"fmt"
	"sync"

	"quizroom/internal/domain"
)

// LeaderboardView shows standings in exactly the order the server returns.
// The manage variant is owner-only and can ban listed members.
type LeaderboardView struct {
	c      *Client
	nav    Navigator
	code   string
	manage bool

	board *Feed[domain.Leaderboard]
	ban   *Action

	mu         sync.RWMutex
	authorized bool
}

func (c *Client) Leaderboard(code string, manage bool, nav Navigator) *LeaderboardView {
	return &LeaderboardView{
		c:      c,
		nav:    nav,
		code:   code,
		manage: manage,
		board:  NewFeed[domain.Leaderboard](),
		ban:    NewAction("banUser", c.notifier),
	}
}

// Open fetches the standings once. In manage mode a non-owner gets
// ErrUnauthorized.
func (v *LeaderboardView) Open(ctx context.Context) error {
	if err := v.refresh(ctx); err != nil {
		v.c.notifier.Error("Error fetching leaderboard")
		return err
	}
	if v.manage && !v.Authorized() {
		v.c.notifier.Error("Unauthorized Access")
		return domain.ErrUnauthorized
	}
	return nil
}

func (v *LeaderboardView) refresh(ctx context.Context) error {
	ticket := v.board.Ticket()
	lb, err := v.c.api.Leaderboard(ctx, v.code)
	if err != nil {
		return err
	}
	if v.board.Apply(ticket, lb) {
		v.authorize(ctx, lb)
	}
	return nil
}

func (v *LeaderboardView) authorize(ctx context.Context, lb domain.Leaderboard) {
	sess, err := v.c.session.Load(ctx)
	owner := err == nil && domain.SameEmail(sess.UserEmail, lb.OwnerEmail)
	v.mu.Lock()
	v.authorized = owner
	v.mu.Unlock()
}

// Authorized reports whether the viewer owns the room per the last snapshot.
func (v *LeaderboardView) Authorized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.authorized
}

// Standings returns the last fetched leaderboard.
func (v *LeaderboardView) Standings() domain.Leaderboard {
	lb, _ := v.board.Get()
	return lb
}

// Updates streams every leaderboard replacement.
func (v *LeaderboardView) Updates() (<-chan domain.Leaderboard, func()) { return v.board.Subscribe() }

// Mine returns the viewer's 1-based rank and entry, rank 0 when not listed.
func (v *LeaderboardView) Mine(ctx context.Context) (int, domain.LeaderboardEntry) {
	sess, err := v.c.session.Load(ctx)
	if err != nil {
		return 0, domain.LeaderboardEntry{}
	}
	return v.Standings().RankOf(sess.UserID)
}

// Run refreshes the standings until ctx ends.
func (v *LeaderboardView) Run(ctx context.Context) {
	if v.manage && !v.Authorized() {
		<-ctx.Done()
		return
	}
	if v.c.stream != nil {
		if err := v.follow(ctx); err == nil {
			return
		}
	}
	interval := v.c.timing.Leaderboard
	if v.manage {
		interval = v.c.timing.LeaderboardManage
	}
	v.c.poller("leaderboard", interval, "Error fetching leaderboard", v.refresh).Run(ctx)
}

func (v *LeaderboardView) follow(ctx context.Context) error {
	events, err := v.c.stream.Subscribe(ctx, v.code)
	if err != nil {
		return err
	}
	for ev := range events {
		if ev.Kind != EventLeaderboard {
			continue
		}
		if v.board.ApplyAt(ev.UpdatedAt, ev.Leaderboard) {
			v.authorize(ctx, ev.Leaderboard)
		}
	}
	return streamEnded(ctx)
}

// BanEntry bans the member behind a leaderboard entry.
func (v *LeaderboardView) BanEntry(ctx context.Context, entryID string) error {
	if !v.manage || !v.Authorized() {
		return domain.ErrUnauthorized
	}
	return v.ban.Do(ctx, "User banned successfully.", "Failed to ban user.", func(ctx context.Context) error {
		var target *domain.LeaderboardEntry
		lb := v.Standings()
		for i := range lb.Entries {
			if lb.Entries[i].ID == entryID {
				target = &lb.Entries[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("%w: no leaderboard entry %q", domain.ErrNotFound, entryID)
		}
		if target.Email == "" {
			return fmt.Errorf("%w: entry %q has no email", domain.ErrWireSchema, entryID)
		}
		if err := v.c.api.BanUser(ctx, v.code, target.Email); err != nil {
			return err
		}
		return v.refresh(ctx)
	})
}
