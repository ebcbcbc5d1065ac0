// Package iamauth provides the authentication and request-admission core of an
// identity/access-management backend: JWT access/refresh token issuance, a
// Redis-backed revocation blacklist, per-client token-bucket rate limiting, and
// the request-authentication pipeline that combines them.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. All cross-request state (revocations, rate-limit buckets)
// lives in Redis, so multiple server instances share one source of truth.
//
// # Architecture boundaries
//
// iamauth is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types. Token mechanics live in jwt/, the
// blacklist in revocation/, admission control in ratelimit/, and the HTTP
// filters in middleware/. Persistent identity storage is an external
// collaborator consumed through [IdentityProvider]; password hashing through
// [PasswordVerifier].
//
// # What this package must NOT do
//
//   - Persist user, role, or permission records.
//   - Make authorization decisions (it resolves identity; routing policy is
//     downstream).
//   - Distinguish token-failure causes to callers (anti-oracle property).
package iamauth
