package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

type testEnv struct {
	obs      Observer
	exporter *tracetest.InMemoryExporter
	reader   *sdkmetric.ManualReader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := NewOTelObserver(
		WithInstrumentationName("xmetrics-test"),
		WithTracerProvider(tp),
		WithMeterProvider(mp),
		nil,
	)
	require.NoError(t, err)
	return &testEnv{obs: obs, exporter: exporter, reader: reader}
}

// sumByStatus 汇总 Int64 Sum 指标，按 status 属性分组。
func (e *testEnv) sumByStatus(t *testing.T, name string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, e.reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not Sum[int64]", name)
			for _, dp := range sum.DataPoints {
				st, _ := dp.Attributes.Value(attribute.Key("status"))
				out[st.AsString()] += dp.Value
			}
		}
	}
	return out
}

func (e *testEnv) histogramCount(t *testing.T, name string) uint64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, e.reader.Collect(context.Background(), &rm))
	var n uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				for _, dp := range h.DataPoints {
					n += dp.Count
				}
			}
		}
	}
	return n
}

// ============================================================================
// Observer
// ============================================================================

func TestOTelObserver_Success(t *testing.T) {
	env := newTestEnv(t)

	_, span := Start(context.Background(), env.obs, SpanOptions{
		Component: "xrotate",
		Operation: "rotate",
		Attrs:     []Attr{String("path", "/var/log/app.log"), Int("archives", 3)},
	})
	span.End(Result{Bytes: 512, Attrs: []Attr{Bool("truncated", false), Duration("wait", time.Millisecond)}})
	// 幂等
	span.End(Result{Err: errors.New("ignored")})

	spans := env.exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "xrotate.rotate", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	attrs := attribute.NewSet(spans[0].Attributes...)
	v, ok := attrs.Value("bytes")
	require.True(t, ok)
	assert.Equal(t, int64(512), v.AsInt64())
	v, ok = attrs.Value("wait")
	require.True(t, ok)
	assert.Equal(t, time.Millisecond.Nanoseconds(), v.AsInt64())

	assert.Equal(t, map[string]int64{"ok": 1}, env.sumByStatus(t, metricOperationTotal))
	assert.Equal(t, map[string]int64{"ok": 512}, env.sumByStatus(t, metricOperationBytes))
	assert.Equal(t, uint64(1), env.histogramCount(t, metricOperationDuration))
}

func TestOTelObserver_Error(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	_, span := env.obs.Start(ctx, SpanOptions{})
	cancel()
	span.End(Result{Err: errors.New("disk full")})

	spans := env.exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unknown.unknown", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "disk full", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)

	// ctx 已取消，指标仍记录
	assert.Equal(t, map[string]int64{"error": 1}, env.sumByStatus(t, metricOperationTotal))
	assert.Empty(t, env.sumByStatus(t, metricOperationBytes))
}

func TestOTelObserver_ExplicitStatus(t *testing.T) {
	env := newTestEnv(t)

	_, span := env.obs.Start(context.Background(), SpanOptions{Component: "xrotate", Operation: "rotate"})
	span.End(Result{Status: StatusSkipped})

	_, span = env.obs.Start(context.Background(), SpanOptions{Component: "xrotate", Operation: "rotate"})
	span.End(Result{Status: StatusError})

	assert.Equal(t, map[string]int64{"skipped": 1, "error": 1}, env.sumByStatus(t, metricOperationTotal))
	spans := env.exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "operation failed", spans[1].Status.Description)
}

func TestNewOTelObserver_GlobalProviders(t *testing.T) {
	obs, err := NewOTelObserver(WithInstrumentationName(""), WithTracerProvider(nil), WithMeterProvider(nil))
	require.NoError(t, err)
	_, span := obs.Start(nil, SpanOptions{Component: "c"}) //nolint:staticcheck // nil ctx 兜底
	span.End(Result{})
}

func TestToKeyValue(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		want attribute.KeyValue
	}{
		{"字符串", String("k", "v"), attribute.String("k", "v")},
		{"布尔", Bool("k", true), attribute.Bool("k", true)},
		{"整数", Int("k", 3), attribute.Int("k", 3)},
		{"int64", Int64("k", 9), attribute.Int64("k", 9)},
		{"浮点", Attr{Key: "k", Value: 1.5}, attribute.Float64("k", 1.5)},
		{"其他类型", Attr{Key: "k", Value: []int{1}}, attribute.String("k", "[1]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toKeyValue(tt.attr))
		})
	}
	assert.Len(t, attrsToOTel([]Attr{{Key: ""}, {Key: "k"}, String("a", "b")}), 1)
}
