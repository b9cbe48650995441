package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"quizroom/internal/domain"
)

// RoomView is the waiting room: members refresh live and the view leaves for
// the game as soon as the owner starts it.
type RoomView struct {
	c    *Client
	nav  Navigator
	code string

	room   *Feed[domain.Room]
	status *Feed[domain.GameStatus]
	exit   *Action

	redirect sync.Once
}

func (c *Client) Room(code string, nav Navigator) *RoomView {
	return &RoomView{
		c:      c,
		nav:    nav,
		code:   code,
		room:   NewFeed[domain.Room](),
		status: NewFeed[domain.GameStatus](),
		exit:   NewAction("exitRoom", c.notifier),
	}
}

// Code is the room code this view is bound to.
func (v *RoomView) Code() string { return v.code }

// Open fetches the room once.
func (v *RoomView) Open(ctx context.Context) error {
	sess, err := v.c.session.Load(ctx)
	if err != nil {
		return err
	}
	room, err := v.c.api.Room(ctx, v.code, sess.UserEmail)
	if err != nil {
		v.c.notifier.Error("Failed to fetch room data.")
		return err
	}
	if room.Code == "" {
		room.Code = v.code
	}
	v.room.Set(room)
	v.status.Set(domain.GameStatus{GameStarted: room.GameStarted})
	if err := v.c.session.SaveRoom(ctx, room); err != nil {
		log.Warn().Err(err).Str("room", v.code).Msg("save room snapshot")
	}
	return nil
}

// Snapshot returns the latest known room state.
func (v *RoomView) Snapshot() domain.Room {
	room, _ := v.room.Get()
	return room
}

// Updates streams every room replacement. Call cancel when done.
func (v *RoomView) Updates() (<-chan domain.Room, func()) { return v.room.Subscribe() }

// GameStarted reports the last polled start flag.
func (v *RoomView) GameStarted() bool {
	st, _ := v.status.Get()
	return st.GameStarted
}

// IsOwner reports whether the session user owns the room.
func (v *RoomView) IsOwner(ctx context.Context) bool {
	sess, err := v.c.session.Load(ctx)
	if err != nil {
		return false
	}
	return v.Snapshot().OwnedBy(sess.UserEmail)
}

// Run keeps members and game status fresh until ctx ends (the view unmounts).
func (v *RoomView) Run(ctx context.Context) {
	if v.c.stream != nil {
		if err := v.follow(ctx); err == nil {
			return
		}
		// Stream unavailable or dropped: fall back to polling.
	}
	var wg sync.WaitGroup
	pollers := []*Poller{
		v.c.poller("room.members", v.c.timing.RoomMembers, "Failed to fetch users.", v.refreshMembers),
		v.c.poller("room.status", v.c.timing.GameStatus, "Failed to fetch game status.", v.refreshStatus),
	}
	for _, p := range pollers {
		wg.Add(1)
		go func(p *Poller) {
			defer wg.Done()
			p.Run(ctx)
		}(p)
	}
	wg.Wait()
}

func (v *RoomView) refreshMembers(ctx context.Context) error {
	ticket := v.room.Ticket()
	members, err := v.c.api.LoadUsers(ctx, v.code)
	if err != nil {
		return err
	}
	v.room.Apply(ticket, v.withMembers(members))
	return nil
}

func (v *RoomView) refreshStatus(ctx context.Context) error {
	ticket := v.status.Ticket()
	st, err := v.c.api.GameStatus(ctx, v.code)
	if err != nil {
		return err
	}
	if v.status.Apply(ticket, st) {
		v.onStatus(st)
	}
	return nil
}

func (v *RoomView) withMembers(members []domain.Member) domain.Room {
	room, _ := v.room.Get()
	room.Members = members
	return room
}

// onStatus performs the one-way hop into the game.
func (v *RoomView) onStatus(st domain.GameStatus) {
	if !st.GameStarted {
		return
	}
	v.redirect.Do(func() {
		log.Info().Str("room", v.code).Msg("game started, joining")
		v.nav.Navigate(GamePath(v.code, 1))
	})
}

func (v *RoomView) follow(ctx context.Context) error {
	events, err := v.c.stream.Subscribe(ctx, v.code)
	if err != nil {
		log.Warn().Err(err).Str("room", v.code).Msg("stream subscribe failed")
		return err
	}
	for ev := range events {
		switch ev.Kind {
		case EventMembers:
			v.room.ApplyAt(ev.UpdatedAt, v.withMembers(ev.Members))
		case EventGameStatus:
			if v.status.ApplyAt(ev.UpdatedAt, ev.Status) {
				v.onStatus(ev.Status)
			}
		}
	}
	return streamEnded(ctx)
}

// Exit leaves the room. Guests have no account to return to, so their
// session is dropped; members go back home.
func (v *RoomView) Exit(ctx context.Context) error {
	var guest bool
	err := v.exit.Do(ctx, "Successfully exited the room.", "Failed to exit the room.", func(ctx context.Context) error {
		sess, err := v.c.session.Load(ctx)
		if err != nil {
			return err
		}
		if err := v.c.api.ExitRoom(ctx, v.code, sess.UserEmail); err != nil {
			return err
		}
		guest = sess.Guest
		if guest {
			return v.c.session.Clear(ctx)
		}
		return v.c.session.ForgetRoom(ctx)
	})
	if err != nil {
		return err
	}
	target := PathRoot
	if guest {
		target = PathAuth
	}
	return navigateAfter(ctx, v.c.clock, v.nav, v.c.timing.ExitRedirect, target)
}
