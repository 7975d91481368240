package exec

import (
	"context"
	"sync"
)

// SerialQueue runs tasks one at a time, in submission order, on a single
// long-lived worker goroutine. The queue is unbounded.
type SerialQueue struct {
	onFault FaultHandler

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool
	done   chan struct{}
}

// SerialOption configures a SerialQueue.
type SerialOption func(*SerialQueue)

// WithSerialFaultHandler sets where task errors and panics are reported.
func WithSerialFaultHandler(h FaultHandler) SerialOption {
	return func(q *SerialQueue) {
		if h != nil {
			q.onFault = h
		}
	}
}

// NewSerialQueue creates a serial queue and starts its worker.
func NewSerialQueue(opts ...SerialOption) *SerialQueue {
	q := &SerialQueue{
		onFault: LogFaults(nil),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Submit appends a task to the queue.
func (q *SerialQueue) Submit(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrShutdown
	}
	q.queue = append(q.queue, task)
	q.cond.Signal()
	return nil
}

// Len returns the number of tasks waiting to run.
func (q *SerialQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// Shutdown stops accepting tasks and waits until the queue is drained.
func (q *SerialQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *SerialQueue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.queue) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.queue) == 0 {
			// Closed and drained.
			q.mu.Unlock()
			return
		}
		task := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		q.mu.Unlock()

		run(Serial, task, q.onFault)
	}
}
