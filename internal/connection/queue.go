package connection

import (
	"sync"

	"octoshim/internal/wire"
)

// Queue is the per-instance unbounded outbound queue: it decouples the
// writer goroutine from whatever is enqueuing Requests (the outbound
// router) so a slow TCP peer never blocks fan-out to other instances. It
// implements registry.Outbound.
//
// A fixed-capacity buffered channel would reintroduce backpressure
// coupling between the router and a slow peer, so this is a
// condition-variable-backed growable queue instead — unbounded, FIFO, and
// closable.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*wire.Request
	closed bool
}

// NewQueue returns an empty, open Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send enqueues req. It returns false if the queue has already been
// closed, in which case the caller should skip this record rather than
// treat it as an error.
func (q *Queue) Send(req *wire.Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, req)
	q.cond.Signal()
	return true
}

// Next blocks until a Request is available or the queue is closed with
// nothing left buffered, in which case it returns (nil, false).
func (q *Queue) Next() (*wire.Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req, true
}

// Close marks the queue closed. Already-buffered items still drain via
// Next; once drained, Next reports (nil, false), letting the writer
// goroutine exit cleanly.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
