package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/workbook-import/pkg/httpapi"
	"github.com/iota-uz/workbook-import/pkg/logging"
)

type LoggerOptions struct {
	// Header carrying the caller's request id.
	RequestIDHeader string
	Repanic         bool
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{RequestIDHeader: "X-Request-ID"}
}

type responseCaptureWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
	bytes         int
}

func (w *responseCaptureWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

// Status returns the HTTP status code
func (w *responseCaptureWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	if !w.statusWritten {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *responseCaptureWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseCaptureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func getRequestID(r *http.Request, header string) string {
	if header != "" && len(r.Header.Get(header)) > 0 {
		return r.Header.Get(header)
	}
	return uuid.New().String()
}

var tracer = otel.Tracer("workbook-import/middleware")

// WithLogger stamps every request with a request id, a trace span and a
// request scoped logger, and turns handler panics into a JSON 500.
func WithLogger(logger logrus.FieldLogger, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := getRequestID(r, opts.RequestIDHeader)

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"path":       r.URL.Path,
				"method":     r.Method,
			})

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(
				ctx,
				"http.request",
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.request_id", requestID),
				),
			)
			defer span.End()

			if spanContext := span.SpanContext(); spanContext.HasTraceID() {
				w.Header().Set("X-Trace-Id", spanContext.TraceID().String())
				fieldsLogger = fieldsLogger.WithField("trace_id", spanContext.TraceID().String())
			}
			w.Header().Set("X-Request-Id", requestID)
			ctx = logging.WithLogger(ctx, fieldsLogger)

			wrapped := &responseCaptureWriter{ResponseWriter: w}

			defer func() {
				if recovered := recover(); recovered != nil {
					fieldsLogger.WithFields(logrus.Fields{
						"panic":    recovered,
						"stack":    string(debug.Stack()),
						"status":   http.StatusInternalServerError,
						"duration": time.Since(start),
					}).Error("panic recovered in request handler")

					if !wrapped.statusWritten {
						_ = httpapi.WriteError(wrapped, http.StatusInternalServerError, httpapi.CodeInternal,
							"internal server error", map[string]string{
								"request_id": requestID,
								"path":       r.URL.Path,
							})
					}
					if opts.Repanic {
						panic(recovered)
					}
				}
			}()

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			status := wrapped.Status()
			duration := time.Since(start)
			span.SetAttributes(
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
				attribute.Int("http.status_code", status),
			)
			entry := fieldsLogger.WithFields(logrus.Fields{
				"duration":     duration,
				"status":       status,
				"status_class": status / 100,
				"bytes":        wrapped.bytes,
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("request completed")
				return
			}
			entry.Info("request completed")
		})
	}
}
