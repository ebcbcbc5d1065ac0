package ratelimit

import "errors"

var (
	// ErrRedisUnavailable reports a backing-cache outage. Admission must be
	// denied when it appears; silently letting traffic through would defeat
	// the limiter during exactly the incidents it exists for.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrUnknownRouteClass reports a check against a class with no bucket
	// configuration.
	ErrUnknownRouteClass = errors.New("unknown route class")
)
