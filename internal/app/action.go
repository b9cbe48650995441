package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizroom/internal/domain"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

// Navigator moves the client to another path.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Action is a user-triggered, one-shot request. While a request is in flight
// the action reports Loading and refuses to start another.
type Action struct {
	name     string
	notifier Notifier
	loading  atomic.Bool
}

func NewAction(name string, notifier Notifier) *Action {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Action{name: name, notifier: notifier}
}

// Loading reports whether a request is in flight.
func (a *Action) Loading() bool {
	return a.loading.Load()
}

// Do runs fn once. On success the notifier shows okMsg (if set); on failure
// it shows failMsg, or the error text when failMsg is empty. No retry.
func (a *Action) Do(ctx context.Context, okMsg, failMsg string, fn func(ctx context.Context) error) error {
	if !a.loading.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer a.loading.Store(false)

	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Str("action", a.name).Msg("action failed")
		a.notifier.Error(failureText(failMsg, err))
		return err
	}
	if okMsg != "" {
		a.notifier.Success(okMsg)
	}
	return nil
}

func failureText(failMsg string, err error) string {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case failMsg != "":
		return failMsg
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return err.Error()
}

// wait sleeps d on clock or returns early when ctx ends.
func wait(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// navigateAfter waits d, then navigates. Used for redirects that leave the
// user time to read a message.
func navigateAfter(ctx context.Context, clock clockwork.Clock, nav Navigator, d time.Duration, path string) error {
	if err := wait(ctx, clock, d); err != nil {
		return err
	}
	if nav != nil {
		nav.Navigate(path)
	}
	return nil
}
