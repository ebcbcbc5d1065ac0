// Package jwt implements the bearer-token codec: issuance and verification of
// signed, expiring access and refresh tokens with a single opaque failure mode.
package jwt
