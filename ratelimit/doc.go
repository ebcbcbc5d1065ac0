// Package ratelimit implements the per-(route class, client) token-bucket
// admission controller backed by Redis.
//
// # Bucket semantics
//
// Each (class, client) pair owns one bucket of fixed capacity that refills
// continuously at capacity/period. The refill-and-consume step executes as a
// single Lua script, so concurrent requests against the same bucket can never
// over-admit. Key layout: rate_limit:<class>:<client>.
//
// # What this package must NOT do
//
//   - Map HTTP routes to classes (the caller owns that table).
//   - Resolve client identity from requests (middleware owns that).
package ratelimit
