package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizroom/internal/domain"
)

// RoundState is where a single question currently stands.
type RoundState int

const (
	RoundLoading RoundState = iota
	RoundAnswering
	RoundSubmitted
	RoundTimedOut
	RoundFinished
)

func (s RoundState) String() string {
	switch s {
	case RoundLoading:
		return "loading"
	case RoundAnswering:
		return "answering"
	case RoundSubmitted:
		return "submitted"
	case RoundTimedOut:
		return "timed-out"
	case RoundFinished:
		return "finished"
	}
	return fmt.Sprintf("round(%d)", int(s))
}

// RoundResult is what a round ended with and where the client goes next.
type RoundResult struct {
	State    RoundState
	Question domain.Question
	Outcome  domain.AnswerOutcome
	Next     string
}

// RoundHooks lets a front end follow the round. Every hook is optional.
type RoundHooks struct {
	OnQuestion func(n int, q domain.Question)
	OnTick     func(remaining time.Duration)
}

// GameView plays question number n of a room. It is single use.
type GameView struct {
	c      *Client
	nav    Navigator
	code   string
	number int

	mu    sync.Mutex
	state RoundState
}

func (c *Client) Game(code string, number int, nav Navigator) *GameView {
	if number < 1 {
		number = 1
	}
	return &GameView{c: c, nav: nav, code: code, number: number}
}

// State returns the current round state.
func (g *GameView) State() RoundState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *GameView) setState(s RoundState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Play loads the question and waits for whichever comes first: an answer on
// answers or the countdown deadline. Exactly one of submitAnswer or
// timeoutAnswer is sent per round.
func (g *GameView) Play(ctx context.Context, answers <-chan string, hooks RoundHooks) (RoundResult, error) {
	g.setState(RoundLoading)
	q, err := g.c.api.Question(ctx, g.code, g.number)
	if err != nil {
		if errors.Is(err, domain.ErrNoMoreQuestions) {
			g.setState(RoundFinished)
			next := LeaderboardPath(g.code)
			g.nav.Navigate(next)
			return RoundResult{State: RoundFinished, Next: next}, nil
		}
		g.c.notifier.Error("Failed to fetch question data")
		return RoundResult{State: RoundLoading}, err
	}

	sess, err := g.c.session.Load(ctx)
	if err != nil {
		return RoundResult{State: RoundLoading, Question: q}, err
	}

	budget := time.Duration(q.Time) * time.Second
	start := g.c.clock.Now()
	deadline := start.Add(budget)
	g.setState(RoundAnswering)
	if hooks.OnQuestion != nil {
		hooks.OnQuestion(g.number, q)
	}

	countdown := g.c.clock.NewTimer(budget)
	// Stopped on every exit path, answer or timeout.
	defer stopAndDrain(countdown)

	var tick <-chan time.Time
	if hooks.OnTick != nil && g.c.timing.Countdown > 0 {
		ticker := g.c.clock.NewTicker(g.c.timing.Countdown)
		defer ticker.Stop()
		tick = ticker.Chan()
		hooks.OnTick(budget)
	}

	for {
		select {
		case <-ctx.Done():
			return RoundResult{State: g.State(), Question: q}, ctx.Err()

		case <-countdown.Chan():
			return g.timeout(ctx, sess, q)

		case now := <-tick:
			hooks.OnTick(remaining(deadline, now))

		case choice, ok := <-answers:
			if !ok {
				// Input closed: nothing left to do but let the clock run out.
				answers = nil
				continue
			}
			choice = strings.ToLower(strings.TrimSpace(choice))
			if _, valid := q.Answers.Get(choice); !valid {
				g.c.notifier.Error("Please select an answer")
				continue
			}
			now := g.c.clock.Now()
			if !now.Before(deadline) {
				return g.timeout(ctx, sess, q)
			}
			stopAndDrain(countdown)
			return g.submit(ctx, sess, q, choice, now.Sub(start))
		}
	}
}

func (g *GameView) timeout(ctx context.Context, sess domain.Session, q domain.Question) (RoundResult, error) {
	g.setState(RoundTimedOut)
	g.c.notifier.Error("Time's up!")
	if err := g.c.api.TimeoutAnswer(ctx, g.code, sess.UserID, g.number); err != nil {
		// The round still advances; the server is authoritative on scoring.
		log.Warn().Err(err).Str("room", g.code).Int("question", g.number).Msg("timeout not recorded")
	}
	next := GamePath(g.code, g.number+1)
	g.nav.Navigate(next)
	return RoundResult{State: RoundTimedOut, Question: q, Next: next}, nil
}

func (g *GameView) submit(ctx context.Context, sess domain.Session, q domain.Question, choice string, taken time.Duration) (RoundResult, error) {
	g.setState(RoundSubmitted)
	outcome, err := g.c.api.SubmitAnswer(ctx, domain.AnswerSubmission{
		RoomCode:       g.code,
		UserID:         sess.UserID,
		QuestionNumber: g.number,
		Answer:         choice,
		Point:          q.Point,
		TimeTaken:      taken.Seconds(),
		Time:           q.Time,
		Correct:        q.Correct,
	})
	next := GamePath(g.code, g.number+1)
	if err != nil {
		log.Warn().Err(err).Str("room", g.code).Int("question", g.number).Msg("submit failed")
		g.c.notifier.Error("You already answered this question")
		if werr := navigateAfter(ctx, g.c.clock, g.nav, g.c.timing.AnswerError, next); werr != nil {
			return RoundResult{State: RoundSubmitted, Question: q}, werr
		}
		return RoundResult{State: RoundSubmitted, Question: q, Next: next}, nil
	}

	g.c.notifier.Success("Answer submitted successfully")
	if outcome.Status == domain.StatusEnd {
		next = LeaderboardPath(g.code)
	}
	g.nav.Navigate(next)
	return RoundResult{State: RoundSubmitted, Question: q, Outcome: outcome, Next: next}, nil
}

func remaining(deadline, now time.Time) time.Duration {
	left := deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left.Truncate(time.Second)
}

// stopAndDrain stops t and empties its channel if it already fired.
func stopAndDrain(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
