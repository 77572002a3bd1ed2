package api

import (
	"compress/gzip"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"recipe-extraction-api/internal/logger"
	"recipe-extraction-api/internal/metrics"
)

// WithMiddleware wraps the API mux with compression, a request deadline and
// per-route request accounting.
func WithMiddleware(mux http.Handler, timeout time.Duration, m *metrics.Metrics) http.Handler {
	return gzipMiddleware(timeoutMiddleware(instrument(mux, m), timeout))
}

// gzipMiddleware compresses responses when the client supports it
func gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")

		gw := gzip.NewWriter(w)
		defer func() {
			if err := gw.Close(); err != nil {
				logger.LogError("Error closing gzip writer: %v", err)
			}
		}()

		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, writer: gw}, r)
	})
}

// gzipResponseWriter wraps http.ResponseWriter to compress responses
type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	w.ResponseWriter.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

// timeoutMiddleware bounds each request; the handler's context is cancelled
// at the deadline and the client gets a 503.
func timeoutMiddleware(next http.Handler, timeout time.Duration) http.Handler {
	if timeout <= 0 {
		return next
	}
	body := `{"error":"Request timeout"}`
	return http.TimeoutHandler(next, timeout, body)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument logs each request and counts it by route pattern.
func instrument(next http.Handler, m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, rec.code)
		slog.Info("Request handled", "method", r.Method, "path", r.URL.Path,
			"status", rec.code, "duration", time.Since(start).Round(time.Millisecond))
	})
}
