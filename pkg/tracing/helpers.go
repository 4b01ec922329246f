package tracing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// StartSpan opens a span named "<component>.<operation>".
func StartSpan(ctx context.Context, component, operation string, attrs ...trace.Attribute) (context.Context, *trace.Span) {
	ctx, span := trace.StartSpan(ctx, component+"."+operation)
	if len(attrs) > 0 {
		span.AddAttributes(attrs...)
	}
	return ctx, span
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span *trace.Span, err error) {
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
	}
	span.End()
}

// Traced runs f inside a span and returns its result.
func Traced[T any](ctx context.Context, component, operation string, f func(context.Context) (T, error)) (T, error) {
	ctx, span := StartSpan(ctx, component, operation)
	result, err := f(ctx)
	EndSpan(span, err)
	return result, err
}

// AddAttribute annotates the span stored in ctx.
func AddAttribute(ctx context.Context, key string, value interface{}) {
	span := trace.FromContext(ctx)
	if span == nil {
		return
	}
	switch v := value.(type) {
	case string:
		span.AddAttributes(trace.StringAttribute(key, v))
	case int:
		span.AddAttributes(trace.Int64Attribute(key, int64(v)))
	case int64:
		span.AddAttributes(trace.Int64Attribute(key, v))
	case bool:
		span.AddAttributes(trace.BoolAttribute(key, v))
	default:
		span.AddAttributes(trace.StringAttribute(key, fmt.Sprint(v)))
	}
}

// HTTPClient returns a client whose requests are traced as "<METHOD> <path>".
func HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &ochttp.Transport{
			FormatSpanName: func(req *http.Request) string {
				return req.Method + " " + req.URL.Host + req.URL.Path
			},
		},
	}
}

// Handler wraps h so every inbound request gets a server span.
func Handler(h http.Handler) http.Handler {
	return &ochttp.Handler{
		Handler: h,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
	}
}
