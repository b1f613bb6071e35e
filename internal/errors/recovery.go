package errors

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/copyleftdev/bioristor/internal/logging"
)

// RecoveryMiddleware returns a middleware that recovers from panics and
// answers with an internal error.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				var perr *Error
				if err, ok := rec.(error); ok {
					perr = Wrap(err, "handler panicked")
				} else {
					perr = Errorf("%v", rec)
				}
				perr = perr.WithOperation("panic")
				logger.Error("Recovered from panic", map[string]interface{}{
					"error":      perr.Error(),
					"stack":      perr.StackTrace(),
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": middleware.GetReqID(r.Context()),
				})

				_ = render.Render(w, r, Internal())
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// ErrorHandler is a middleware that logs responses with an error status.
func ErrorHandler(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status < http.StatusBadRequest {
				return
			}

			fields := map[string]interface{}{
				"status": status,
				"method": r.Method,
				"path":   r.URL.Path,
				"query":  r.URL.RawQuery,
				"ip":     r.RemoteAddr,
			}
			if status >= http.StatusInternalServerError {
				logger.Error("Request error", fields)
			} else {
				logger.Warn("Request rejected", fields)
			}
		})
	}
}
