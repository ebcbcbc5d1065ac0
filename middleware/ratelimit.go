package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/andyvr/iamauth/ratelimit"
)

// RouteTable maps method+path pairs to the route class the rate limiter
// buckets by. Unmapped routes are not rate limited.
type RouteTable struct {
	rules map[string]ratelimit.RouteClass
}

func NewRouteTable() *RouteTable {
	return &RouteTable{
		rules: make(map[string]ratelimit.RouteClass),
	}
}

// DefaultRouteTable covers the authentication endpoints plus a general class
// for the remaining API surface.
func DefaultRouteTable() *RouteTable {
	t := NewRouteTable()
	t.Add(http.MethodPost, "/api/auth/login", ratelimit.ClassLogin)
	t.Add(http.MethodPost, "/api/auth/register", ratelimit.ClassRegister)
	t.Add(http.MethodPost, "/api/auth/refresh", ratelimit.ClassRefresh)
	t.Add(http.MethodPost, "/api/auth/logout", ratelimit.ClassGeneral)
	t.Add(http.MethodGet, "/api/users/me", ratelimit.ClassGeneral)
	return t
}

func (t *RouteTable) Add(method, path string, class ratelimit.RouteClass) *RouteTable {
	t.rules[method+" "+path] = class
	return t
}

func (t *RouteTable) Lookup(method, path string) (ratelimit.RouteClass, bool) {
	class, ok := t.rules[method+" "+path]
	return class, ok
}

// RateLimit admits or rejects requests before any handler work happens.
// The bucket key combines the route class with the resolved client
// identifier, so one client exhausting its login bucket does not affect
// other clients or other route classes.
//
// A denied request gets 429 with a Retry-After header. When the limiter
// backend is unreachable the request is rejected with 503 rather than
// admitted unmetered.
func RateLimit(limiter *ratelimit.Limiter, table *RouteTable) func(http.Handler) http.Handler {
	if table == nil {
		table = DefaultRouteTable()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class, ok := table.Lookup(r.Method, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Check(r.Context(), class, ClientIP(r))
			if err != nil {
				if errors.Is(err, ratelimit.ErrUnknownRouteClass) {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusServiceUnavailable, "Service unavailable",
					"Rate limiter unavailable. Please try again later.", r.URL.Path, 0)
				return
			}

			if !decision.Allowed {
				retryAfter := int64(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				writeError(w, http.StatusTooManyRequests, "Too many requests",
					"Rate limit exceeded. Please try again later.", r.URL.Path, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
