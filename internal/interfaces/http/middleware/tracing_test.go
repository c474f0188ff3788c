package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestTracing_Disabled(t *testing.T) {
	recorder := newTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{ServiceName: "smarterp", Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(router, http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}

func TestTracing_SpanPerRoute(t *testing.T) {
	recorder := newTestTracer(t)

	router := gin.New()
	router.Use(RequestID(), Tracing(TracingConfig{ServiceName: "smarterp", Enabled: true}), SpanAttributes())
	router.GET("/api/v1/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	perform(router, http.MethodGet, "/api/v1/orders/o-1", nil, RequestIDHeader, "req-42")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Contains(t, span.Name(), "/api/v1/orders/:id")
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.String("request_id", "req-42"))
}
