package api

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/httprate"

	"github.com/yamdb/yamdb-server/internal/http/response"
	"github.com/yamdb/yamdb-server/internal/metrics"
)

// globalRateLimit limits every route to perMinute requests per client IP.
func globalRateLimit(perMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimitedTotal.WithLabelValues("global").Inc()
			logger.Warn("Rate limit exceeded", "limiter", "global", "ip", clientIP(r.RemoteAddr), "path", r.URL.Path)
			response.TooManyRequests(w, 0, logger)
		}),
	)
}

// limitAuth is a huma middleware throttling signup and token exchange per client IP.
// Returns 429 Too Many Requests with Retry-After when the budget is spent.
func (s *Server) limitAuth(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())
	ok, retryAfter := s.authRateLimiter.Allow(key)
	if ok {
		next(ctx)
		return
	}

	metrics.RateLimitedTotal.WithLabelValues("auth").Inc()
	s.logger.Warn("Rate limit exceeded", "limiter", "auth", "ip", key, "path", ctx.URL().Path)
	if retryAfter > 0 && retryAfter < time.Hour {
		ctx.SetHeader("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests, please try again later")
}

// clientIP strips the port from a remote address. RealIP has already applied
// X-Forwarded-For and X-Real-IP by the time this runs.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
