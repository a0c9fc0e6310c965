package monitor

import (
	"context"
	"sync"
)

// idSignal delivers the resolved application ID to any number of awaiters
// without polling. It is single-assignment: the first complete or fail wins
// and later calls are ignored. Cancelling an awaiter's context never
// affects the producer.
type idSignal struct {
	once sync.Once
	done chan struct{}
	id   string
	err  error
}

func newIDSignal() *idSignal {
	return &idSignal{done: make(chan struct{})}
}

func (s *idSignal) complete(id string) {
	s.once.Do(func() {
		s.id = id
		close(s.done)
	})
}

func (s *idSignal) fail(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// await blocks until the signal is assigned or ctx is done.
func (s *idSignal) await(ctx context.Context) (string, error) {
	select {
	case <-s.done:
		return s.id, s.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// poll returns the assigned value without blocking. ok is false while the
// signal is unassigned.
func (s *idSignal) poll() (id string, err error, ok bool) {
	select {
	case <-s.done:
		return s.id, s.err, true
	default:
		return "", nil, false
	}
}
