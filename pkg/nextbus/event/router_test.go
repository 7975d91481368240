package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
)

// deferredSubmitter runs Inline tasks immediately and queues the rest.
type deferredSubmitter struct {
	mu     sync.Mutex
	queued []exec.Task
	faults []error
	reject error
}

func (s *deferredSubmitter) Submit(kind exec.Kind, task exec.Task) error {
	if s.reject != nil {
		return s.reject
	}
	if kind == exec.Inline {
		return task()
	}
	s.mu.Lock()
	s.queued = append(s.queued, task)
	s.mu.Unlock()
	return nil
}

func (s *deferredSubmitter) drain() {
	s.mu.Lock()
	tasks := s.queued
	s.queued = nil
	s.mu.Unlock()
	for _, task := range tasks {
		if err := task(); err != nil {
			s.faults = append(s.faults, err)
		}
	}
}

type captureReporter struct {
	mu      sync.Mutex
	errs    []error
	consume bool
}

func (c *captureReporter) Report(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	return c.consume
}

func trigger(t *testing.T, kind exec.Kind, fn HandlerFunc) Trigger {
	t.Helper()
	d, err := NewDescriptor("o", fn, On[int]("x"), WithContext(kind), WithName("h"))
	require.NoError(t, err)
	return Trigger{Descriptor: d, Values: Values{"x": 1}}
}

func TestRouter_InlineRunsBeforeReturn(t *testing.T) {
	sub := &deferredSubmitter{}
	counters := &Counters{}
	r := NewRouter(RouterConfig{Executors: sub, Counters: counters})

	ran := false
	err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, func(context.Context, Values) error {
		ran = true
		return nil
	})})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, uint64(1), counters.Snapshot().Triggered)
}

func TestRouter_InlineErrorReturned(t *testing.T) {
	sub := &deferredSubmitter{}
	counters := &Counters{}
	r := NewRouter(RouterConfig{Executors: sub, Counters: counters})

	boom := errors.New("boom")
	err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, func(context.Context, Values) error {
		return boom
	})})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ierr *InvocationError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "h", ierr.Handler)
	assert.Equal(t, []string{"x"}, ierr.Events)
	assert.Equal(t, exec.Inline, ierr.Context)
	assert.False(t, ierr.Panicked)

	st := counters.Snapshot()
	assert.Equal(t, uint64(1), st.Triggered)
	assert.Equal(t, uint64(1), st.Failed)
}

func TestRouter_ReporterConsumes(t *testing.T) {
	sub := &deferredSubmitter{}
	rep := &captureReporter{consume: true}
	r := NewRouter(RouterConfig{Executors: sub, Reporter: rep})

	err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, func(context.Context, Values) error {
		return errors.New("boom")
	})})
	assert.NoError(t, err)
	require.Len(t, rep.errs, 1)
	assert.Equal(t, []string{"x"}, EventNames(rep.errs[0]))
}

func TestRouter_PanicCaptured(t *testing.T) {
	sub := &deferredSubmitter{}
	r := NewRouter(RouterConfig{Executors: sub})

	err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, func(context.Context, Values) error {
		panic("kaboom")
	})})

	var ierr *InvocationError
	require.ErrorAs(t, err, &ierr)
	assert.True(t, ierr.Panicked)
	assert.Contains(t, ierr.Error(), "kaboom")
	assert.NotEmpty(t, ierr.Stack)
}

func TestRouter_DeferredErrorBecomesFault(t *testing.T) {
	sub := &deferredSubmitter{}
	r := NewRouter(RouterConfig{Executors: sub})

	err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Pooled, func(context.Context, Values) error {
		return errors.New("late")
	})})
	require.NoError(t, err, "deferred work reports nothing to the emitter")

	sub.drain()
	require.Len(t, sub.faults, 1)
	var ierr *InvocationError
	assert.ErrorAs(t, sub.faults[0], &ierr)
}

func TestRouter_DeferredErrorReported(t *testing.T) {
	sub := &deferredSubmitter{}
	rep := &captureReporter{consume: true}
	r := NewRouter(RouterConfig{Executors: sub, Reporter: rep})

	require.NoError(t, r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Serial, func(context.Context, Values) error {
		return errors.New("late")
	})}))
	sub.drain()

	assert.Empty(t, sub.faults)
	assert.Len(t, rep.errs, 1)
}

func TestRouter_SubmitFailure(t *testing.T) {
	t.Run("returned without reporter", func(t *testing.T) {
		sub := &deferredSubmitter{reject: exec.ErrQueueFull}
		r := NewRouter(RouterConfig{Executors: sub})

		err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Pooled, noop)})
		var derr *DispatchError
		require.ErrorAs(t, err, &derr)
		assert.ErrorIs(t, err, exec.ErrQueueFull)
		assert.Equal(t, exec.Pooled, derr.Context)
	})

	t.Run("inline shutdown is a dispatch error", func(t *testing.T) {
		sub := &deferredSubmitter{reject: exec.ErrShutdown}
		r := NewRouter(RouterConfig{Executors: sub})

		err := r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, noop)})
		var derr *DispatchError
		require.ErrorAs(t, err, &derr)
		assert.ErrorIs(t, err, exec.ErrShutdown)
	})

	t.Run("reported", func(t *testing.T) {
		sub := &deferredSubmitter{reject: exec.ErrShutdown}
		rep := &captureReporter{consume: true}
		r := NewRouter(RouterConfig{Executors: sub, Reporter: rep})

		assert.NoError(t, r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Serial, noop)}))
		require.Len(t, rep.errs, 1)
		assert.ErrorIs(t, rep.errs[0], exec.ErrShutdown)
	})
}

func TestRouter_HandlerContextOutlivesEmitter(t *testing.T) {
	sub := &deferredSubmitter{}
	r := NewRouter(RouterConfig{Executors: sub})

	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))

	var handlerErr error
	var value any
	require.NoError(t, r.Dispatch(ctx, []Trigger{trigger(t, exec.Pooled, func(ctx context.Context, _ Values) error {
		handlerErr = ctx.Err()
		value = ctx.Value(key{})
		return nil
	})}))
	cancel()
	sub.drain()

	assert.NoError(t, handlerErr)
	assert.Equal(t, "v", value)
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	sub := &deferredSubmitter{}
	r := NewRouter(RouterConfig{Executors: sub})

	var order []string
	mw := func(name string) Middleware {
		return func(next Invoker) Invoker {
			return func(ctx context.Context, t Trigger) error {
				order = append(order, name+">")
				err := next(ctx, t)
				order = append(order, "<"+name)
				return err
			}
		}
	}
	r.Use(mw("outer"), mw("inner"))

	require.NoError(t, r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, func(context.Context, Values) error {
		order = append(order, "handler")
		return nil
	})}))
	assert.Equal(t, []string{"outer>", "inner>", "handler", "<inner", "<outer"}, order)
}

func TestRouter_MiddlewareSeesPanicAsError(t *testing.T) {
	sub := &deferredSubmitter{}
	r := NewRouter(RouterConfig{Executors: sub})

	var seen error
	r.Use(func(next Invoker) Invoker {
		return func(ctx context.Context, t Trigger) error {
			seen = next(ctx, t)
			return seen
		}
	})

	_ = r.Dispatch(context.Background(), []Trigger{trigger(t, exec.Inline, func(context.Context, Values) error {
		panic("x")
	})})
	var ierr *InvocationError
	require.ErrorAs(t, seen, &ierr)
	assert.True(t, ierr.Panicked)
}

func TestRouter_SerialOrderPreserved(t *testing.T) {
	q := exec.NewSerialQueue()
	p := exec.NewProvider(q, nil)
	r := NewRouter(RouterConfig{Executors: p})

	var mu sync.Mutex
	var got []int64
	d := MustDescriptor("o", func(_ context.Context, v Values) error {
		mu.Lock()
		got = append(got, v.Int("x"))
		mu.Unlock()
		return nil
	}, On[int]("x"), WithContext(exec.Serial))

	for i := 0; i < 50; i++ {
		require.NoError(t, r.Dispatch(context.Background(), []Trigger{{Descriptor: d, Values: Values{"x": i}}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, int64(i), v)
	}
}

func TestRouter_EmptyDispatch(t *testing.T) {
	r := NewRouter(RouterConfig{Executors: &deferredSubmitter{}})
	assert.NoError(t, r.Dispatch(context.Background(), nil))
}
