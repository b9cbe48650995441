package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Poller re-fetches one slice of view state on a fixed interval until its
// context ends. Ticks do not wait for each other and a failed tick does not
// change the schedule.
type Poller struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	fetch    func(ctx context.Context) error
	notifier Notifier
	failMsg  string
}

// NewPoller builds a poller. failMsg is what the user sees when a tick fails.
func NewPoller(name string, interval time.Duration, clock clockwork.Clock, notifier Notifier, failMsg string, fetch func(ctx context.Context) error) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Poller{
		name:     name,
		interval: interval,
		clock:    clock,
		fetch:    fetch,
		notifier: notifier,
		failMsg:  failMsg,
	}
}

// Run blocks until ctx is done. The first fetch happens one interval after
// Run starts. Cancelling ctx stops the schedule; a fetch already running is
// left to finish.
func (p *Poller) Run(ctx context.Context) {
	if p.interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	log.Debug().Str("poller", p.name).Dur("interval", p.interval).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("poller", p.name).Msg("polling stopped")
			return
		case <-ticker.Chan():
			go p.tick(ctx)
		}
	}
}

// tick runs one fetch to completion even if the view unmounts meanwhile; only
// a view that is still mounted hears about a failure.
func (p *Poller) tick(view context.Context) {
	err := p.fetch(context.WithoutCancel(view))
	if err == nil {
		return
	}
	if view.Err() != nil {
		log.Debug().Err(err).Str("poller", p.name).Msg("poll failed after unmount")
		return
	}
	log.Warn().Err(err).Str("poller", p.name).Msg("poll failed")
	p.notifier.Error(p.failMsg)
}
