// Package middleware wires the authentication engine into net/http.
//
// The request-admission order matters: RateLimit runs first so abusive
// clients are rejected before any token work, then Authenticate resolves
// the bearer token into a principal, then RequireAuth / RequireAuthority
// guard individual routes.
//
// # What this package must NOT do
//
//   - Never translate an invalid token into an error response on its own;
//     token failures degrade to anonymous and route guards decide.
//   - Never resolve the client identifier more than one way; everything
//     funnels through ClientIP.
package middleware
