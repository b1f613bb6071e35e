package server

import (
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	apierrors "github.com/copyleftdev/bioristor/internal/errors"
	"github.com/copyleftdev/bioristor/internal/logging"
)

// RateLimiter rejects requests above a global token-bucket rate.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int, logger *logging.Logger) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Handler implements the rate limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.Warn("Rate limit exceeded", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			w.Header().Set("Retry-After", "1")
			_ = render.Render(w, r, apierrors.New(http.StatusTooManyRequests,
				apierrors.CodeRateLimited, "rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
