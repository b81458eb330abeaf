package xmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nilObserver struct{}

func (nilObserver) Start(context.Context, SpanOptions) (context.Context, Span) {
	return nil, nil
}

func TestStart(t *testing.T) {
	t.Run("nil observer", func(t *testing.T) {
		ctx, span := Start(context.Background(), nil, SpanOptions{})
		assert.NotNil(t, ctx)
		assert.IsType(t, NoopSpan{}, span)
	})

	t.Run("nil ctx", func(t *testing.T) {
		ctx, span := Start(nil, NoopObserver{}, SpanOptions{}) //nolint:staticcheck // 兜底
		assert.NotNil(t, ctx)
		assert.NotNil(t, span)
		span.End(Result{})
	})

	t.Run("自定义 Observer 返回 nil", func(t *testing.T) {
		parent := context.Background()
		ctx, span := Start(parent, nilObserver{}, SpanOptions{})
		assert.Equal(t, parent, ctx)
		assert.IsType(t, NoopSpan{}, span)
	})
}

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: assert.AnError}))
	assert.Equal(t, StatusSkipped, resolveStatus(Result{Status: StatusSkipped, Err: assert.AnError}))
}
