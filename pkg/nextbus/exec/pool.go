package exec

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool executes tasks on a fixed set of worker goroutines fed by a
// bounded queue. Submit never blocks: when the queue is full it returns
// ErrQueueFull.
type Pool struct {
	queueSize   int
	workerCount int
	onFault     FaultHandler

	// mu guards closing the queue against concurrent sends.
	mu     sync.RWMutex
	queue  chan Task
	closed bool
	wg     sync.WaitGroup

	enqueued  atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
	dropped   atomic.Uint64
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of worker goroutines.
// Default: runtime.GOMAXPROCS(0)
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithQueueSize sets how many tasks may wait for a worker.
// Default: 10000
func WithQueueSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithPoolFaultHandler sets where task errors and panics are reported.
func WithPoolFaultHandler(h FaultHandler) PoolOption {
	return func(p *Pool) {
		if h != nil {
			p.onFault = h
		}
	}
}

// NewPool creates a pool and starts its workers.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		queueSize:   10000,
		workerCount: runtime.GOMAXPROCS(0),
		onFault:     LogFaults(nil),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.queue = make(chan Task, p.queueSize)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a task for execution.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrShutdown
	}

	select {
	case p.queue <- task:
		p.enqueued.Add(1)
		return nil
	default:
		p.dropped.Add(1)
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks and waits for the workers to drain the
// queue, or for ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for task := range p.queue {
		switch run(Pooled, task, p.onFault) {
		case failed:
			p.failed.Add(1)
		case panicked:
			p.panicked.Add(1)
		}
		p.processed.Add(1)
	}
}

// PoolStats contains statistics for a pool.
type PoolStats struct {
	// Workers is the number of worker goroutines.
	Workers int
	// Enqueued is the total number of accepted tasks.
	Enqueued uint64
	// Processed is the number of tasks that have finished running.
	Processed uint64
	// Failed is the number of tasks that returned an error.
	Failed uint64
	// Panicked is the number of tasks that panicked.
	Panicked uint64
	// Dropped is the number of tasks rejected because the queue was full.
	Dropped uint64
	// QueueDepth is the number of tasks waiting for a worker.
	QueueDepth int
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workerCount,
		Enqueued:   p.enqueued.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Panicked:   p.panicked.Load(),
		Dropped:    p.dropped.Load(),
		QueueDepth: len(p.queue),
	}
}
