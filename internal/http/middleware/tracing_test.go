package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opencensus.io/trace"
)

func TestTracingMiddleware(t *testing.T) {
	var sawSpan bool
	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/c/spring?utm=1", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Request-ID", "test-request-id")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawSpan)
}

func TestTracingMiddleware_ErrorStatus(t *testing.T) {
	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/campaigns.list", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTraceResponseWriter(t *testing.T) {
	recorder := httptest.NewRecorder()
	_, span := trace.StartSpan(context.Background(), "test-span")
	defer span.End()

	w := &traceResponseWriter{ResponseWriter: recorder, span: span}
	_, err := w.Write([]byte("test"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.statusCode)
	assert.Equal(t, "test", recorder.Body.String())

	w = &traceResponseWriter{ResponseWriter: httptest.NewRecorder(), span: span}
	w.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, w.statusCode)
	w.Flush()
}
