package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestShutdownTracingWithoutProvider(t *testing.T) {
	a := &App{}
	// 未启用追踪时必须是安全的空操作
	assert.NotPanics(t, func() {
		a.shutdownTracing(context.Background())
	})
}

func TestShutdownTracingFlushesProvider(t *testing.T) {
	a := &App{tracer: sdktrace.NewTracerProvider()}
	assert.NotPanics(t, func() {
		a.shutdownTracing(context.Background())
	})
}
