package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"todo/shared"
	"todo/shared/constant"
	"todo/shared/logger"
	"todo/transport/http/response"
)

const cacheKeyRateLimit = "limiter"

// RateLimit admits at most MaxRequests per client and user agent in each fixed window of
// WindowSeconds, counted in the cache. Cache faults let the request through.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	if !a.config.App.RateLimiter.Enable {
		return func(next http.Handler) http.Handler { return next }
	}

	limit := a.config.App.RateLimiter.MaxRequests
	window := a.config.App.RateLimiter.WindowSeconds

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := shared.BuildCacheKey(cacheKeyRateLimit, a.getClientIP(r), a.getUA(r))

			hits, err := a.cache.Incr(r.Context(), key, window)
			if err != nil {
				logger.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("rate limiter cache unavailable")
				next.ServeHTTP(w, r)

				return
			}

			header := w.Header()
			header.Set(constant.RequestHeaderRateLimit, strconv.Itoa(limit))
			header.Set(constant.RequestHeaderRateLimitRemaining, strconv.FormatInt(max(0, int64(limit)-hits), 10))
			header.Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(window))

			if hits > int64(limit) {
				logger.Ctx(r.Context()).Debug().Str("key", key).Int64("hits", hits).Msg("rate limit exceeded")
				response.WithRequestLimitExceeded(w)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) getUA(r *http.Request) string {
	ua := r.Header.Get(constant.RequestHeaderUserAgent)
	if ua == "" {
		ua = "unknown"
	}

	return ua
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func (a *appMiddleware) getClientIP(r *http.Request) string {
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	return r.RemoteAddr
}
