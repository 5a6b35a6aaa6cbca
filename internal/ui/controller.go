package ui

import (
	"fmt"
	"sync"

	clog "github.com/charmbracelet/log"
)

// controllerQueue runs controller callbacks on a single goroutine in the
// order they were pushed. push never blocks.
type controllerQueue struct {
	mu      sync.Mutex
	pending []func(Controller)
	closed  bool
	wake    chan struct{}
	logger  *clog.Logger
}

func newControllerQueue(ctrl Controller, logger *clog.Logger) *controllerQueue {
	q := &controllerQueue{wake: make(chan struct{}, 1), logger: logger}
	go q.run(ctrl)
	return q
}

func (q *controllerQueue) push(fn func(Controller)) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *controllerQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.pending = nil
	close(q.wake)
}

func (q *controllerQueue) run(ctrl Controller) {
	for range q.wake {
		for {
			q.mu.Lock()
			if len(q.pending) == 0 {
				q.mu.Unlock()
				break
			}
			fn := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			q.call(ctrl, fn)
		}
	}
}

func (q *controllerQueue) call(ctrl Controller, fn func(Controller)) {
	defer func() {
		if rec := recover(); rec != nil && q.logger != nil {
			q.logger.Error("ui.controller_panic", "panic", fmt.Sprintf("%v", rec))
		}
	}()
	fn(ctrl)
}
