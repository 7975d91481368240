package nextbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/randalmurphal/nextbus/pkg/nextbus"
	"github.com/randalmurphal/nextbus/pkg/nextbus/event"
	"github.com/randalmurphal/nextbus/pkg/nextbus/exec"
	"github.com/randalmurphal/nextbus/pkg/nextbus/observability"
)

func counterTotal(rm *metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestBus_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		_ = provider.Shutdown(context.Background())
	})

	b := newBus(t, nextbus.WithMetrics(observability.NewMetricsRecorder()))
	require.NoError(t, b.Register(
		event.MustDescriptor("o", func(context.Context, event.Values) error { return nil },
			event.On[int]("ok"), event.WithContext(exec.Inline)),
		event.MustDescriptor("o", func(context.Context, event.Values) error { return errors.New("x") },
			event.On[int]("bad"), event.WithContext(exec.Inline)),
		event.MustDescriptor("o", func(context.Context, event.Values) error { return nil },
			event.On[int]("a"), event.On[int]("b"), event.WithContext(exec.Inline)),
	))
	b.SetErrorListener(func(error) {})

	ctx := context.Background()
	require.NoError(t, b.EmitImmediately(ctx, "ok", 1, false))
	require.NoError(t, b.EmitImmediately(ctx, "bad", 1, false))
	require.NoError(t, b.EmitImmediately(ctx, "a", 1, false))
	require.NoError(t, b.EmitImmediately(ctx, "a", 2, false))
	require.NoError(t, b.EmitImmediately(ctx, "ghost", 1, true))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(5), counterTotal(&rm, "nextbus.emit.count"))
	assert.Equal(t, int64(2), counterTotal(&rm, "nextbus.emit.triggers"))
	assert.Equal(t, int64(1), counterTotal(&rm, "nextbus.emit.dead"))
	assert.Equal(t, int64(2), counterTotal(&rm, "nextbus.handler.invocations"))
	assert.Equal(t, int64(1), counterTotal(&rm, "nextbus.handler.errors"))
	assert.Equal(t, int64(1), counterTotal(&rm, "nextbus.pending.overrides"))
}
