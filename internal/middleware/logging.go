package middleware

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vancomm/minefield-server/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type loggingWriter struct {
	http.ResponseWriter
	statusCode int
	hijacked   bool
}

func (w *loggingWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *loggingWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	w.hijacked = true
	return h.Hijack()
}

func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(CtxRequestID).(string)
	return id
}

// Logging tags each request with an id, echoed in X-Request-ID, and records
// one access log line and the request metrics once the handler returns.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(r.Context(), CtxRequestID, id)

			wrapped := &loggingWriter{ResponseWriter: w}

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			if wrapped.statusCode == 0 && !wrapped.hijacked {
				wrapped.statusCode = http.StatusOK
			}
			elapsed := time.Since(start)

			metrics.HTTPRequests.WithLabelValues(
				r.Method, strconv.Itoa(wrapped.statusCode),
			).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())

			logger.Info(
				"handled request",
				slog.String("requestId", id),
				slog.Int("statusCode", wrapped.statusCode),
				slog.Bool("hijacked", wrapped.hijacked),
				slog.String("remoteAddr", r.RemoteAddr),
				slog.String("xffHeader", r.Header.Get("X-Forwarded-For")),
				slog.String("method", r.Method),
				slog.String("uri", r.URL.RequestURI()),
				slog.Int64("duration (ms)", elapsed.Milliseconds()),
			)
		})
	}
}
