package app

import (
	"sync"
	"time"
)

// Feed holds the latest snapshot of one slice of view state and fans every
// replacement out to subscribers. Values are replaced wholesale, never merged.
type Feed[T any] struct {
	mu          sync.Mutex
	value       T
	has         bool
	issued      uint64
	applied     uint64
	stamp       time.Time
	subscribers map[chan T]struct{}
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subscribers: make(map[chan T]struct{})}
}

// Ticket reserves a sequence number for a fetch about to start.
func (f *Feed[T]) Ticket() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	return f.issued
}

// Apply replaces the snapshot unless a fetch issued later has already landed.
func (f *Feed[T]) Apply(ticket uint64, v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket <= f.applied {
		return false
	}
	f.applied = ticket
	f.setLocked(v)
	return true
}

// ApplyAt replaces the snapshot when at is newer than the last stamped write.
func (f *Feed[T]) ApplyAt(at time.Time, v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.has && !f.stamp.IsZero() && !at.After(f.stamp) {
		return false
	}
	f.stamp = at
	f.setLocked(v)
	return true
}

// Set replaces the snapshot unconditionally and invalidates older tickets.
func (f *Feed[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	f.applied = f.issued
	f.setLocked(v)
}

// Get returns the current snapshot.
func (f *Feed[T]) Get() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.has
}

// Subscribe returns a channel receiving every replacement, starting with the
// current value when there is one. The caller must invoke cancel.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 4)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	if f.has {
		ch <- f.value
	}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed[T]) setLocked(v T) {
	f.value = v
	f.has = true
	for ch := range f.subscribers {
		select {
		case ch <- v:
		default:
			// Slow reader: drop the oldest pending snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
