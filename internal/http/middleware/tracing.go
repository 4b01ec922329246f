package middleware

import (
	"net/http"

	"go.opencensus.io/trace"

	"github.com/lifenjoy/campaigns/pkg/tracing"
)

// TracingMiddleware starts a server span per request and annotates it with
// request details and the response status.
func TracingMiddleware(next http.Handler) http.Handler {
	annotated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if span := trace.FromContext(r.Context()); span != nil {
			span.AddAttributes(
				trace.StringAttribute("http.host", r.Host),
				trace.StringAttribute("http.user_agent", r.UserAgent()),
				trace.StringAttribute("http.method", r.Method),
				trace.StringAttribute("http.path", r.URL.Path),
			)
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
			}
		}
		next.ServeHTTP(&traceResponseWriter{ResponseWriter: w, span: trace.FromContext(r.Context())}, r)
	})
	return tracing.Handler(annotated)
}

// traceResponseWriter records the status code on the request span.
type traceResponseWriter struct {
	http.ResponseWriter
	span       *trace.Span
	statusCode int
}

func (trw *traceResponseWriter) WriteHeader(code int) {
	trw.statusCode = code

	if trw.span != nil {
		trw.span.AddAttributes(trace.Int64Attribute("http.status_code", int64(code)))
		if code >= 500 {
			trw.span.SetStatus(trace.Status{
				Code:    trace.StatusCodeUnknown,
				Message: http.StatusText(code),
			})
		}
	}

	trw.ResponseWriter.WriteHeader(code)
}

func (trw *traceResponseWriter) Write(b []byte) (int, error) {
	if trw.statusCode == 0 {
		trw.statusCode = http.StatusOK
	}
	return trw.ResponseWriter.Write(b)
}

// Flush lets streaming handlers flush through the wrapper.
func (trw *traceResponseWriter) Flush() {
	if f, ok := trw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
