package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is the single failure value reported for any rejected
// token. The underlying cause (malformed, bad signature, expired) is kept in
// the wrapped message for server-side logs but callers must not branch on it.
var ErrTokenInvalid = errors.New("invalid token")

// minSecretLen is the minimum HMAC secret size: 256 bits for HS256.
const minSecretLen = 32

// Config holds the codec's signing parameters.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secret     []byte
	Issuer     string
	Leeway     time.Duration
}

// Claims is the token payload. Access tokens carry the authority set as a
// comma-joined string under the "roles" claim; refresh tokens carry the
// subject only.
type Claims struct {
	Roles string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Authorities splits the roles claim back into the authority set.
// Refresh tokens return an empty set.
func (c *Claims) Authorities() []string {
	if c == nil || c.Roles == "" {
		return nil
	}
	return strings.Split(c.Roles, ",")
}

// Codec creates and parses signed, expiring bearer tokens.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt: AccessTTL must be > 0")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("jwt: RefreshTTL must exceed AccessTTL")
	}
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("jwt: secret must be at least %d bytes", minSecretLen)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// IssueAccess creates a short-lived access token embedding the subject and
// its authority set.
func (c *Codec) IssueAccess(subject string, authorities []string) (string, error) {
	return c.issue(subject, strings.Join(authorities, ","), c.config.AccessTTL)
}

// IssueRefresh creates a long-lived refresh token carrying the subject only.
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.issue(subject, "", c.config.RefreshTTL)
}

func (c *Codec) issue(subject, roles string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if c.config.Issuer != "" {
		claims.Issuer = c.config.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.config.Secret)
}

// Validate verifies signature then expiry and returns the parsed claims.
// Malformed structure, signature mismatch, and past expiry are all reported
// as [ErrTokenInvalid]; the wrapped cause is for logging only.
func (c *Codec) Validate(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, c.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ExpiryOf returns the token's expiry instant for revocation bookkeeping.
// The signature is still verified but an expired token succeeds, so callers
// can compute the remaining lifetime of tokens presented at logout.
func (c *Codec) ExpiryOf(tokenStr string) (time.Time, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, c.keyFunc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	return c.config.Secret, nil
}
