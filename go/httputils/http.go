// Package httputils provides small HTTP server-side helpers shared by the
// route registry and its handlers: response-body hygiene, a
// Cross-Origin-Resource-Policy middleware, request logging, and ETag
// validator matching for conditional GETs.
package httputils

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openlawlibrary/stelae-sub000/go/sklog"
)

type requestIDKey struct{}

// RequestID assigns a fresh UUID to each request, reachable from handlers
// via RequestIDFromContext and included in LoggingRequestResponse's log
// line so a single request can be traced across log entries.
func RequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the ID RequestID assigned to this request,
// or "" if the middleware wasn't in the chain.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stelae_http_requests_total",
		Help: "Count of HTTP requests served, by method and status code.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "stelae_http_request_duration_seconds",
		Help: "Latency of HTTP requests served.",
	}, []string{"method"})
)

// Metrics wraps h with request-count and latency instrumentation,
// exported through MetricsHandler.
func Metrics(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(lw, r)
		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(lw.status)).Inc()
		requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler exposes the registered counters in the Prometheus text
// exposition format, meant to be mounted at /metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ReadAndClose reads body to completion and closes it, discarding the
// bytes. Callers use this to let the transport reuse the connection after
// they are done inspecting only the status code or headers of a response.
func ReadAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// CrossOriginResourcePolicy sets Cross-Origin-Resource-Policy: cross-origin
// on every response, so archived documents (including fonts, PDFs, and
// other resources) can be fetched from a different origin.
func CrossOriginResourcePolicy(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		h.ServeHTTP(w, r)
	})
}

// loggingResponseWriter captures the status code written by the wrapped
// handler so LoggingRequestResponse can log it after the fact.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// LoggingRequestResponse logs method, path, status, and latency for every
// request at Info severity.
func LoggingRequestResponse(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(lw, r)
		sklog.Infof("[%s] %s %s %d %s", RequestIDFromContext(r.Context()), r.Method, r.URL.Path, lw.status, time.Since(start))
	})
}

// ETagMatches reports whether etag (an opaque validator, no surrounding
// quotes or weak prefix) is present among the comma-separated entries of an
// If-None-Match header value, per spec.md §4.1. An empty header never
// matches.
func ETagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		candidate = strings.Trim(candidate, `"`)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// QuoteETag wraps a raw validator value in the quoted form HTTP requires
// for the ETag response header.
func QuoteETag(etag string) string {
	return strconv.Quote(etag)
}
