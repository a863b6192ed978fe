package api

import (
	"net"
	"net/http"

	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/ratelimit"
)

// limitPosts rate limits POST requests by client IP. Form pages can still be
// viewed when the limit is hit. Exceeding the limit renders a 429 page.
func (s *Server) limitPosts(limiter *ratelimit.KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				s.logger.Warn("rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				err := domainerrors.TooManyRequests("Too many attempts. Please wait a minute and try again.")
				s.renderStatus(w, r, err.HTTPStatus(), err.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the host part of RemoteAddr. Forwarding headers are
// only honoured by realIP, which rewrites RemoteAddr for trusted proxies.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
