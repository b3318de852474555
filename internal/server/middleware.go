package server

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/playcadiz/pokeruta/internal/metrics"
	"github.com/playcadiz/pokeruta/internal/ratelimit"
)

const (
	adminCookieName   = "admin_token"
	adminSecretHeader = "X-Admin-Secret"
)

// isAdminRequest reports whether the request carries the shared admin secret,
// either in the X-Admin-Secret header (kiosk / machine use) or the admin
// cookie (browser panel). Comparison is constant-time.
func isAdminRequest(r *http.Request, secret string) bool {
	if secret == "" {
		return false
	}
	if secretEqual(r.Header.Get(adminSecretHeader), secret) {
		return true
	}
	if cookie, err := r.Cookie(adminCookieName); err == nil && secretEqual(cookie.Value, secret) {
		return true
	}
	return false
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// adminAuthMiddleware gates every admin API route. Unauthorized calls get a
// uniform 401 with no detail on why.
func adminAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isAdminRequest(r, secret) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware bounds request bursts per client address. RealIP runs
// earlier in the chain, so RemoteAddr already reflects X-Forwarded-For.
func rateLimitMiddleware(limiter *ratelimit.Limiter, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r), max, window) {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "too many requests, wait a moment")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
