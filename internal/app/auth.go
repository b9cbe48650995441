package app

import (
	"context"
	"fmt"
	"strings"

	"quizroom/internal/domain"
)

// AuthView handles the unauthenticated forms: login, signup and guest-join.
type AuthView struct {
	c      *Client
	nav    Navigator
	login  *Action
	signup *Action
	guest  *Action
}

func (c *Client) Auth(nav Navigator) *AuthView {
	return &AuthView{
		c:      c,
		nav:    nav,
		login:  NewAction("login", c.notifier),
		signup: NewAction("signup", c.notifier),
		guest:  NewAction("joinGuest", c.notifier),
	}
}

// Loading reports whether any auth form is waiting on the server.
func (v *AuthView) Loading() bool {
	return v.login.Loading() || v.signup.Loading() || v.guest.Loading()
}

// Login stores the returned session and moves to the home page.
func (v *AuthView) Login(ctx context.Context, email, password string) error {
	return v.login.Do(ctx, "Logged in", "", func(ctx context.Context) error {
		email, password = strings.TrimSpace(email), strings.TrimSpace(password)
		if email == "" || password == "" {
			return fmt.Errorf("%w: email and password are required", domain.ErrValidation)
		}
		sess, err := v.c.api.Login(ctx, email, password)
		if err != nil {
			return err
		}
		if err := v.c.session.Save(ctx, sess); err != nil {
			return err
		}
		v.nav.Navigate(PathRoot)
		return nil
	})
}

// Signup creates an account. The user still has to log in afterwards.
func (v *AuthView) Signup(ctx context.Context, name, email, password string) error {
	return v.signup.Do(ctx, "Account created, you can log in now", "", func(ctx context.Context) error {
		name, email = strings.TrimSpace(name), strings.TrimSpace(email)
		if name == "" || email == "" || password == "" {
			return fmt.Errorf("%w: name, email and password are required", domain.ErrValidation)
		}
		if err := v.c.api.Signup(ctx, name, email, password); err != nil {
			return err
		}
		v.nav.Navigate(PathLogin)
		return nil
	})
}

// JoinGuest joins a room without an account.
func (v *AuthView) JoinGuest(ctx context.Context, name, roomCode string) error {
	return v.guest.Do(ctx, "Joined room", "", func(ctx context.Context) error {
		roomCode = strings.TrimSpace(roomCode)
		if roomCode == "" {
			return fmt.Errorf("%w: room code is required", domain.ErrValidation)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = "Guest"
		}
		joined, err := v.c.api.JoinGuest(ctx, name, roomCode)
		if err != nil {
			return err
		}
		if !TokenUsable(joined.Token) {
			return fmt.Errorf("join guest: %w: no usable access token", domain.ErrWireSchema)
		}
		sess := domain.Session{
			Token:     joined.Token,
			UserName:  name,
			UserEmail: domain.GuestEmail,
			UserID:    joined.GuestID,
			Guest:     true,
		}
		if err := v.c.session.Save(ctx, sess); err != nil {
			return err
		}
		if err := v.c.session.SaveRoom(ctx, joined.Room); err != nil {
			return err
		}
		code := joined.Room.Code
		if code == "" {
			code = roomCode
		}
		v.nav.Navigate(RoomPath(code))
		return nil
	})
}

// HomeView is the authenticated landing page: join or create a room.
type HomeView struct {
	c      *Client
	nav    Navigator
	join   *Action
	create *Action
}

func (c *Client) Home(nav Navigator) *HomeView {
	return &HomeView{
		c:      c,
		nav:    nav,
		join:   NewAction("joinRoom", c.notifier),
		create: NewAction("createRoom", c.notifier),
	}
}

// Loading reports whether a join or create request is in flight.
func (v *HomeView) Loading() bool { return v.join.Loading() || v.create.Loading() }

// JoinRoom adds the user to an existing room.
func (v *HomeView) JoinRoom(ctx context.Context, roomCode string) error {
	return v.join.Do(ctx, "", "", func(ctx context.Context) error {
		roomCode = strings.TrimSpace(roomCode)
		if roomCode == "" {
			return fmt.Errorf("%w: please enter a room code", domain.ErrValidation)
		}
		sess, err := v.c.session.Load(ctx)
		if err != nil {
			return err
		}
		room, err := v.c.api.JoinRoom(ctx, roomCode, sess)
		if err != nil {
			return err
		}
		if room.Code == "" {
			room.Code = roomCode
		}
		if err := v.c.session.SaveRoom(ctx, room); err != nil {
			return err
		}
		v.nav.Navigate(RoomPath(room.Code))
		return nil
	})
}

// CreateRoom creates a room owned by the user and enters it.
func (v *HomeView) CreateRoom(ctx context.Context, name string) error {
	return v.create.Do(ctx, "", "", func(ctx context.Context) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: please enter a room name", domain.ErrValidation)
		}
		sess, err := v.c.session.Load(ctx)
		if err != nil {
			return err
		}
		code, err := v.c.api.CreateRoom(ctx, name, sess.UserName, sess.UserEmail)
		if err != nil {
			return err
		}
		owner := domain.Owner{Name: sess.UserName, Email: sess.UserEmail}
		room := domain.Room{
			Code:    code,
			Name:    name,
			Owner:   owner,
			Members: []domain.Member{{ID: sess.UserID, Name: owner.Name, Email: owner.Email}},
		}
		if err := v.c.session.SaveRoom(ctx, room); err != nil {
			return err
		}
		v.nav.Navigate(RoomPath(code))
		return nil
	})
}

// Logout tells the server to revoke the token and forgets the session
// locally even when the server call fails.
func (c *Client) Logout(ctx context.Context, nav Navigator) error {
	var serverErr error
	if c.session.Authenticated(ctx) {
		serverErr = c.api.Logout(ctx)
	}
	if err := c.session.Clear(ctx); err != nil {
		c.notifier.Error("Failed to clear session")
		return err
	}
	if serverErr != nil {
		c.notifier.Error("Server did not confirm logout, local session cleared")
	} else {
		c.notifier.Success("Logged out")
	}
	if nav != nil {
		nav.Navigate(PathAuth)
	}
	return serverErr
}
