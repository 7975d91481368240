package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordEmit(ctx, "x", 1, true)
		m.RecordInvocation(ctx, "h", "inline", time.Millisecond, errors.New("e"))
		m.RecordOverride(ctx, "x", 1)
		m.RecordFault(ctx, "pooled")
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	ctx, span := sm.StartEmitSpan(ctx, "x", false)
	assert.False(t, span.IsRecording())

	_, child := sm.StartInvokeSpan(ctx, "h", "id", []string{"x"}, "serial")
	assert.False(t, child.IsRecording())

	assert.NotPanics(t, func() {
		sm.AddSpanEvent(ctx, "e")
		sm.EndSpanWithError(child, errors.New("e"))
		sm.EndSpanWithError(span, nil)
		sm.EndSpanWithError(nil, nil)
	})
}
