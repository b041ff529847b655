// Package queue provides a bounded FIFO of chords shared between the
// stenura transport's poller goroutine and the translator's consumer
// goroutine, patterned on the condition-variable producer/consumer style
// used for streaming readiness elsewhere in the corpus (garland's
// streamCond).
package queue

import (
	"context"
	"sync"

	"github.com/writerslogic/stenod/internal/chord"
)

// Chord is a bounded, concurrency-safe FIFO of chords. Push blocks while
// full; Pop blocks while empty. Both unblock immediately on Close.
type Chord struct {
	mu     sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items  []chord.Chord
	cap    int
	closed bool
}

// NewChord returns an empty queue with the given capacity. capacity <= 0
// means unbounded (Push never blocks on fullness).
func NewChord(capacity int) *Chord {
	q := &Chord{cap: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push appends c, blocking while the queue is full. It returns false if the
// queue was closed (or ctx was canceled) before there was room.
func (q *Chord) Push(ctx context.Context, c chord.Chord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && q.full() {
		if !q.waitWithContext(ctx, q.notFull) {
			return false
		}
	}
	if q.closed {
		return false
	}

	q.items = append(q.items, c)
	q.notEmpty.Signal()
	return true
}

// Pop removes and returns the oldest chord, blocking while the queue is
// empty. It returns false once the queue is closed and drained.
func (q *Chord) Pop(ctx context.Context) (chord.Chord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && len(q.items) == 0 {
		if !q.waitWithContext(ctx, q.notEmpty) {
			return chord.Chord{}, false
		}
	}
	if len(q.items) == 0 {
		return chord.Chord{}, false
	}

	c := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return c, true
}

// TryPush appends c without blocking. It returns false if the queue is
// closed or currently full.
func (q *Chord) TryPush(c chord.Chord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.full() {
		return false
	}
	q.items = append(q.items, c)
	q.notEmpty.Signal()
	return true
}

// TryPop removes and returns the oldest chord without blocking. ok is false
// if the queue is currently empty.
func (q *Chord) TryPop() (c chord.Chord, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return chord.Chord{}, false
	}
	c = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return c, true
}

// Len reports the number of chords currently queued.
func (q *Chord) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes every blocked Push and Pop. After Close, Pop continues to
// drain whatever was already queued, then returns false.
func (q *Chord) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *Chord) full() bool {
	return q.cap > 0 && len(q.items) >= q.cap
}

// waitWithContext calls cond.Wait but also wakes (returning false) when ctx
// is canceled, by spawning a one-shot watcher that broadcasts on
// cancellation. The watcher exits once this wait returns, via the stop
// channel.
func (q *Chord) waitWithContext(ctx context.Context, cond *sync.Cond) bool {
	if ctx == nil {
		cond.Wait()
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			cond.Broadcast()
			q.mu.Unlock()
		case <-stop:
		}
	}()

	cond.Wait()
	return ctx.Err() == nil
}
