package iamauth

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the resolved client identifier to ctx. The middleware
// resolves it once per request (forwarding header first, then peer address)
// and both audit logging and rate limiting read this same value, so the two
// never disagree about who the client was.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the identifier set by [WithClientIP], or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
