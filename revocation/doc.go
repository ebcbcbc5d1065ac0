// Package revocation provides the Redis-backed token blacklist. Entries are
// keyed by the raw token string and expire on their own once the token's
// natural lifetime has passed.
//
// # Failure semantics
//
// A Redis outage surfaces as [ErrStoreUnavailable] from every operation,
// including Contains. Returning false on an unreachable store would silently
// defeat revocation, so the policy decision (fail-open vs fail-closed) is
// pushed to the caller.
//
// # What this package must NOT do
//
//   - Parse or interpret token claims (the raw string is the key).
//   - Decide admission policy on store outage.
package revocation
