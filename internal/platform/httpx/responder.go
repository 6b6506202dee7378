package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	// MessageInternal is the caller-visible message of every 500 envelope.
	MessageInternal = "Something went wrong!"
	// MessageRouteNotFound is returned for unmatched paths and methods.
	MessageRouteNotFound = "Route not found"
	// MessageTimeout is returned when a request outlives its deadline.
	MessageTimeout = "Request timed out"
)

// HandlerFunc is an HTTP handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Responder converts handler failures into envelopes in one place.
type Responder struct {
	logger *slog.Logger
	dev    bool
}

// NewResponder constructs a Responder. When dev is true, 500 envelopes carry
// the underlying error detail.
func NewResponder(logger *slog.Logger, dev bool) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, dev: dev}
}

// Handle adapts fn to http.HandlerFunc, routing returned errors through Error.
func (rs *Responder) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		if err := fn(tw, r); err != nil {
			if tw.wroteHeader {
				rs.logger.Error("handler failed after response started",
					slog.String("path", r.URL.Path),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Any("error", err))
				return
			}
			rs.Error(w, r, err)
		}
	}
}

// Error writes the envelope for err. Known kinds keep their message; anything
// else is logged and reported as an internal error.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		rs.timedOut(w, r)
		return
	}
	status := StatusOf(err)
	if status != http.StatusInternalServerError {
		Fail(w, status, messageOf(err))
		return
	}
	rs.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err))
	rs.internal(w, err.Error())
}

// NotFound is the fallback for unmatched routes and methods.
func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	Fail(w, http.StatusNotFound, MessageRouteNotFound)
}

// Recoverer turns panics into a single 500 envelope.
func (rs *Responder) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rs.logger.Error("panic recovered",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			if tw.wroteHeader {
				return
			}
			rs.internal(w, fmt.Sprint(rec))
		}()
		next.ServeHTTP(tw, r)
	})
}

// Timeout bounds each request's context by d. A handler that runs past the
// deadline without answering gets a 504 envelope.
func (rs *Responder) Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			tw := &trackingWriter{ResponseWriter: w}
			next.ServeHTTP(tw, r.WithContext(ctx))
			if !tw.wroteHeader && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				rs.timedOut(w, r)
			}
		})
	}
}

func (rs *Responder) timedOut(w http.ResponseWriter, r *http.Request) {
	rs.logger.Warn("request timed out",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	Fail(w, http.StatusGatewayTimeout, MessageTimeout)
}

func (rs *Responder) internal(w http.ResponseWriter, detail string) {
	env := Envelope{Success: false, Message: MessageInternal}
	if rs.dev {
		env.Error = detail
	}
	JSON(w, http.StatusInternalServerError, env)
}

// trackingWriter records whether a response has been started.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.wroteHeader = true
		f.Flush()
	}
}
