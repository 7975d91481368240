package exec

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Provider supplies one Executor per Kind.
type Provider struct {
	executors [3]Executor

	shutdownOnce sync.Once
	shutdownErr  error
	shutdownDone chan struct{}
}

// NewProvider bundles an inline executor with the given serial and pooled
// executors. A nil serial or pooled executor is replaced by a default
// SerialQueue or Pool.
func NewProvider(serial, pooled Executor) *Provider {
	if serial == nil {
		serial = NewSerialQueue()
	}
	if pooled == nil {
		pooled = NewPool()
	}
	return &Provider{
		executors:    [3]Executor{NewInline(), serial, pooled},
		shutdownDone: make(chan struct{}),
	}
}

// Executor returns the executor for a kind.
func (p *Provider) Executor(kind Kind) (Executor, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrNoExecutor, kind)
	}
	return p.executors[kind], nil
}

// Submit hands a task to the executor for kind.
func (p *Provider) Submit(kind Kind, task Task) error {
	e, err := p.Executor(kind)
	if err != nil {
		return err
	}
	return e.Submit(task)
}

// Shutdown shuts every executor down and waits for Serial and Pooled
// queues to drain. Later calls wait for the first one and return its
// result.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		go func() {
			defer close(p.shutdownDone)

			var wg sync.WaitGroup
			errs := make([]error, len(p.executors))
			for i, e := range p.executors {
				wg.Add(1)
				go func(i int, e Executor) {
					defer wg.Done()
					errs[i] = e.Shutdown(ctx)
				}(i, e)
			}
			wg.Wait()
			p.shutdownErr = errors.Join(errs...)
		}()
	})

	select {
	case <-p.shutdownDone:
		return p.shutdownErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
