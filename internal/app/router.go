package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Mounter renders one page until its context ends or it returns.
type Mounter interface {
	Mount(ctx context.Context, route Route, nav Navigator) error
}

// MounterFunc adapts a function to Mounter.
type MounterFunc func(ctx context.Context, route Route, nav Navigator) error

func (f MounterFunc) Mount(ctx context.Context, route Route, nav Navigator) error {
	return f(ctx, route, nav)
}

// Router drives the page loop: resolve through the gate, mount, unmount on
// navigation. A page that returns without navigating ends the loop.
type Router struct {
	gate    *Gate
	mounter Mounter
	next    chan navRequest

	mu  sync.Mutex
	gen uint64
}

// navRequest is a navigation tagged with the mount that asked for it.
type navRequest struct {
	gen  uint64
	path string
}

func NewRouter(gate *Gate, mounter Mounter) *Router {
	return &Router{gate: gate, mounter: mounter, next: make(chan navRequest, 1)}
}

// Navigate schedules path as the next page. Only the latest request is kept.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(navRequest{gen: r.gen, path: path})
}

// navigateFrom is Navigate for the page mounted as gen. Requests from an
// earlier mount are dropped.
func (r *Router) navigateFrom(gen uint64, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.push(navRequest{gen: gen, path: path})
}

// push needs r.mu.
func (r *Router) push(req navRequest) {
	for {
		select {
		case r.next <- req:
			return
		default:
			select {
			case <-r.next:
			default:
			}
		}
	}
}

func (r *Router) mount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return r.gen
}

// retire ends mount gen. It returns a navigation the page queued before
// ending, if any; anything the page sends afterwards is dropped.
func (r *Router) retire(gen uint64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	select {
	case req := <-r.next:
		if req.gen == gen {
			return req.path, true
		}
	default:
	}
	return "", false
}

// Run starts at path and returns when a page ends without navigating, the
// quit path is reached, or ctx is done.
func (r *Router) Run(ctx context.Context, path string) error {
	for {
		route := r.gate.Resolve(ctx, path)
		if route.Page == PageQuit {
			return nil
		}
		log.Debug().Str("path", path).Stringer("page", route.Page).Msg("mount")

		gen := r.mount()
		pageCtx, unmount := context.WithCancel(ctx)
		done := make(chan error, 1)
		nav := mountedNav{router: r, gen: gen}
		go func() { done <- r.mounter.Mount(pageCtx, route, nav) }()

		next, ended, err := r.wait(ctx, gen, done)
		unmount()
		if !ended {
			err = <-done
		}
		if ctx.Err() != nil {
			r.retire(gen)
			return ctx.Err()
		}
		if next == "" {
			return err
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Debug().Err(err).Stringer("page", route.Page).Msg("page ended with error")
		}
		path = next
	}
}

// wait blocks until mount gen navigates or its page returns. An empty path
// means the page ended without navigating; ended reports whether done was
// already consumed.
func (r *Router) wait(ctx context.Context, gen uint64, done <-chan error) (next string, ended bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return "", false, nil
		case req := <-r.next:
			if req.gen != gen {
				continue
			}
			r.retire(gen)
			return req.path, false, nil
		case err := <-done:
			next, _ := r.retire(gen)
			return next, true, err
		}
	}
}

// mountedNav drops navigation requests from a page that is already unmounted,
// such as a poll tick that lands late.
type mountedNav struct {
	router *Router
	gen    uint64
}

func (n mountedNav) Navigate(path string) { n.router.navigateFrom(n.gen, path) }
