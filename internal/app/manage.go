package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"quizroom/internal/domain"
)

// ManageView is the owner-only room console. Every action checks ownership
// locally before it reaches the server.
type ManageView struct {
	c    *Client
	nav  Navigator
	code string

	room      *Feed[domain.Room]
	questions *Feed[[]domain.Question]

	mu         sync.RWMutex
	authorized bool

	add, remove, ban, start, end, drop *Action
}

func (c *Client) Manage(code string, nav Navigator) *ManageView {
	return &ManageView{
		c:         c,
		nav:       nav,
		code:      code,
		room:      NewFeed[domain.Room](),
		questions: NewFeed[[]domain.Question](),
		add:       NewAction("addQuestion", c.notifier),
		remove:    NewAction("deleteQuestion", c.notifier),
		ban:       NewAction("banUser", c.notifier),
		start:     NewAction("startGame", c.notifier),
		end:       NewAction("endGame", c.notifier),
		drop:      NewAction("deleteRoom", c.notifier),
	}
}

// Open loads the room and, for the owner, its questions. A non-owner gets
// ErrUnauthorized and the view stays locked.
func (v *ManageView) Open(ctx context.Context) error {
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

	owner := room.OwnedBy(sess.UserEmail)
	v.mu.Lock()
	v.authorized = owner
	v.mu.Unlock()
	if !owner {
		v.c.notifier.Error("Unauthorized")
		return domain.ErrUnauthorized
	}
	return v.reloadQuestions(ctx)
}

// Authorized reports whether management controls are available.
func (v *ManageView) Authorized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.authorized
}

// Snapshot returns the latest room state.
func (v *ManageView) Snapshot() domain.Room {
	room, _ := v.room.Get()
	return room
}

// Questions returns the question list as last loaded.
func (v *ManageView) Questions() []domain.Question {
	qs, _ := v.questions.Get()
	return qs
}

// Updates streams room replacements.
func (v *ManageView) Updates() (<-chan domain.Room, func()) { return v.room.Subscribe() }

// Run polls the member list until ctx ends. Locked views do not poll.
func (v *ManageView) Run(ctx context.Context) {
	if !v.Authorized() {
		<-ctx.Done()
		return
	}
	v.c.poller("manage.members", v.c.timing.ManageMembers, "Failed to fetch users.", func(ctx context.Context) error {
		ticket := v.room.Ticket()
		members, err := v.c.api.LoadUsers(ctx, v.code)
		if err != nil {
			return err
		}
		room, _ := v.room.Get()
		room.Members = members
		v.room.Apply(ticket, room)
		return nil
	}).Run(ctx)
}

func (v *ManageView) guard() error {
	if !v.Authorized() {
		return domain.ErrUnauthorized
	}
	return nil
}

func (v *ManageView) reloadQuestions(ctx context.Context) error {
	qs, err := v.c.api.Questions(ctx, v.code)
	if err != nil {
		v.c.notifier.Error("Failed to fetch questions.")
		return err
	}
	v.questions.Set(qs)
	return nil
}

// reload mirrors a full page refresh after a mutation.
func (v *ManageView) reload(ctx context.Context) error {
	if err := wait(ctx, v.c.clock, v.c.timing.Reload); err != nil {
		return err
	}
	return v.Open(ctx)
}

// AddQuestion validates q locally, sends it, then reloads the view.
func (v *ManageView) AddQuestion(ctx context.Context, q domain.Question) error {
	if err := v.guard(); err != nil {
		return err
	}
	err := v.add.Do(ctx, "Question added successfully.", "", func(ctx context.Context) error {
		if err := q.Validate(); err != nil {
			return err
		}
		if err := v.c.api.AddQuestion(ctx, v.code, q); err != nil {
			return fmt.Errorf("add question: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return v.reload(ctx)
}

// DeleteQuestion removes a question by id, then reloads the view.
func (v *ManageView) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := v.guard(); err != nil {
		return err
	}
	err := v.remove.Do(ctx, "Question deleted successfully.", "Failed to delete question.", func(ctx context.Context) error {
		if strings.TrimSpace(questionID) == "" {
			return fmt.Errorf("%w: question id is required", domain.ErrValidation)
		}
		return v.c.api.DeleteQuestion(ctx, v.code, questionID)
	})
	if err != nil {
		return err
	}
	return v.reload(ctx)
}

// BanUser removes a member by email and keeps them out of the room.
func (v *ManageView) BanUser(ctx context.Context, email string) error {
	if err := v.guard(); err != nil {
		return err
	}
	err := v.ban.Do(ctx, "User banned successfully.", "Failed to ban user.", func(ctx context.Context) error {
		if strings.TrimSpace(email) == "" {
			return fmt.Errorf("%w: email is required", domain.ErrValidation)
		}
		if domain.SameEmail(email, v.Snapshot().Owner.Email) {
			return fmt.Errorf("%w: the owner cannot be banned", domain.ErrValidation)
		}
		return v.c.api.BanUser(ctx, v.code, email)
	})
	if err != nil {
		return err
	}
	return v.reload(ctx)
}

// StartGame flips the room into play and takes the owner to the live standings.
func (v *ManageView) StartGame(ctx context.Context) error {
	if err := v.guard(); err != nil {
		return err
	}
	err := v.start.Do(ctx, "Game started.", "Failed to start game.", func(ctx context.Context) error {
		if len(v.Questions()) == 0 {
			return fmt.Errorf("%w: add at least one question first", domain.ErrValidation)
		}
		return v.c.api.StartGame(ctx, v.code)
	})
	if err != nil {
		return err
	}
	v.nav.Navigate(ManageLeaderboardPath(v.code))
	return nil
}

// EndGame closes the game so members stop being redirected into it.
func (v *ManageView) EndGame(ctx context.Context) error {
	if err := v.guard(); err != nil {
		return err
	}
	return v.end.Do(ctx, "Game ended.", "Failed to end game.", func(ctx context.Context) error {
		return v.c.api.EndGame(ctx, v.code)
	})
}

// DeleteRoom removes the room and returns home after a short pause.
func (v *ManageView) DeleteRoom(ctx context.Context) error {
	if err := v.guard(); err != nil {
		return err
	}
	err := v.drop.Do(ctx, "Room deleted successfully.", "Failed to delete room.", func(ctx context.Context) error {
		if err := v.c.api.DeleteRoom(ctx, v.code); err != nil {
			return err
		}
		if err := v.c.session.ForgetRoom(ctx); err != nil {
			log.Warn().Err(err).Msg("forget room snapshot")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return navigateAfter(ctx, v.c.clock, v.nav, v.c.timing.DeleteRedirect, PathRoot)
}

// ImportQuestions adds every question of set in order. The whole set is
// validated first; sending stops at the first failure and reports how many
// were added.
func (v *ManageView) ImportQuestions(ctx context.Context, set domain.QuestionSet) (int, error) {
	if err := v.guard(); err != nil {
		return 0, err
	}
	for i, q := range set.Questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %d of %s: %w", i+1, set.ID, err)
		}
	}
	added := 0
	err := v.add.Do(ctx, "", "", func(ctx context.Context) error {
		for i, q := range set.Questions {
			q.ID = ""
			if err := v.c.api.AddQuestion(ctx, v.code, q); err != nil {
				return fmt.Errorf("question %d of %s: %w", i+1, set.ID, err)
			}
			added++
		}
		return nil
	})
	if added > 0 {
		v.c.notifier.Success(fmt.Sprintf("Imported %d question(s) from %q.", added, set.Title))
		if rerr := v.reloadQuestions(ctx); rerr != nil && err == nil {
			err = rerr
		}
	}
	return added, err
}
