package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	iamauth "github.com/andyvr/iamauth"
)

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal attached by
// [Authenticate], if any.
func PrincipalFromContext(ctx context.Context) (*iamauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*iamauth.Principal)
	return p, ok
}

// Authenticate runs the request-authentication pipeline ahead of routing.
// It resolves the client identifier into the context, extracts the bearer
// token, and asks the engine for a principal.
//
// The filter fails open to anonymous: a missing, malformed, expired, or
// revoked token leaves the request unauthenticated and lets downstream
// authorization reject it. The single exception is a revocation-store outage
// on an engine configured fail-closed, which aborts with 503 rather than
// admit possibly-revoked tokens during the outage.
func Authenticate(engine *iamauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := iamauth.WithClientIP(r.Context(), ClientIP(r))
			r = r.WithContext(ctx)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if _, attached := PrincipalFromContext(ctx); attached {
				// a principal is attached at most once per request
				next.ServeHTTP(w, r)
				return
			}

			principal, err := engine.Authenticate(ctx, token)
			if err != nil {
				if engine.RevocationFailClosed() && errors.Is(err, iamauth.ErrStoreUnavailable) {
					writeError(w, http.StatusServiceUnavailable, "Service unavailable",
						"Authentication backend unavailable. Please try again later.", r.URL.Path, 0)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401. Place it after
// [Authenticate] on routes that must not run anonymously.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized",
				"Authentication required.", r.URL.Path, 0)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority rejects requests whose principal lacks the given
// authority with 403 (or 401 when anonymous).
func RequireAuthority(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized",
					"Authentication required.", r.URL.Path, 0)
				return
			}
			if !principal.HasAuthority(authority) {
				writeError(w, http.StatusForbidden, "Forbidden",
					"Insufficient authority.", r.URL.Path, 0)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
