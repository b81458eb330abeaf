package xmetrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xsink/xmetrics"
	unknownName                = "unknown"

	metricOperationTotal    = "xsink.operation.total"
	metricOperationDuration = "xsink.operation.duration"
	metricOperationBytes    = "xsink.operation.bytes"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option 定义 OTel Observer 的配置选项。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称，空字符串被忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，nil 被忽略。
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.tracerProvider = provider
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 被忽略。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer。
// 未指定 provider 时使用 otel 全局 provider。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(metricOperationTotal,
		metric.WithDescription("total operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricOperationTotal, err)
	}
	duration, err := meter.Float64Histogram(metricOperationDuration,
		metric.WithDescription("operation duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricOperationDuration, err)
	}
	bytes, err := meter.Int64Counter(metricOperationBytes,
		metric.WithDescription("bytes processed by operations"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, metricOperationBytes, err)
	}

	return &otelObserver{
		tracer:   cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:    total,
		duration: duration,
		bytes:    bytes,
	}, nil
}

type otelObserver struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
	bytes    metric.Int64Counter
}

func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	component := nonEmpty(opts.Component)
	operation := nonEmpty(opts.Operation)

	attrs := make([]attribute.KeyValue, 0, 2+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String("component", component),
		attribute.String("operation", operation),
	)
	attrs = append(attrs, attrsToOTel(opts.Attrs)...)

	ctx, span := o.tracer.Start(ctx, component+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))

	return ctx, &otelSpan{
		span:      span,
		observer:  o,
		ctx:       ctx,
		component: component,
		operation: operation,
		start:     time.Now(),
	}
}

type otelSpan struct {
	span      trace.Span
	observer  *otelObserver
	ctx       context.Context
	component string
	operation string
	start     time.Time
	endOnce   sync.Once
}

// End 结束观测。幂等：重复调用只记录一次。
func (s *otelSpan) End(result Result) {
	s.endOnce.Do(func() {
		status := resolveStatus(result)

		if result.Err != nil {
			s.span.RecordError(result.Err)
		}
		if status == StatusError {
			desc := "operation failed"
			if result.Err != nil {
				desc = result.Err.Error()
			}
			s.span.SetStatus(codes.Error, desc)
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		if result.Bytes > 0 {
			s.span.SetAttributes(attribute.Int64("bytes", result.Bytes))
		}
		if len(result.Attrs) > 0 {
			s.span.SetAttributes(attrsToOTel(result.Attrs)...)
		}
		s.span.End()

		// 请求 ctx 取消后指标仍需记录
		mctx := context.WithoutCancel(s.ctx)
		set := metric.WithAttributes(
			attribute.String("component", s.component),
			attribute.String("operation", s.operation),
			attribute.String("status", string(status)),
		)
		s.observer.total.Add(mctx, 1, set)
		s.observer.duration.Record(mctx, time.Since(s.start).Seconds(), set)
		if result.Bytes > 0 {
			s.observer.bytes.Add(mctx, result.Bytes, set)
		}
	})
}

func nonEmpty(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}

func resolveStatus(result Result) Status {
	if result.Status != "" {
		return result.Status
	}
	if result.Err != nil {
		return StatusError
	}
	return StatusOK
}

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "" || a.Value == nil {
			continue
		}
		out = append(out, toKeyValue(a))
	}
	return out
}

func toKeyValue(a Attr) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case time.Duration:
		return attribute.Int64(a.Key, v.Nanoseconds())
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}
