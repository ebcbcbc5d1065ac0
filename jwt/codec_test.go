package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		Secret:     testSecret,
		Issuer:     "iamauth-test",
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := testCodec(t)

	token, err := codec.IssueAccess("alice@example.com", []string{"ROLE_USER", "ROLE_ADMIN"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	claims, err := codec.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("subject = %q, want alice@example.com", claims.Subject)
	}
	got := claims.Authorities()
	if len(got) != 2 || got[0] != "ROLE_USER" || got[1] != "ROLE_ADMIN" {
		t.Errorf("authorities = %v, want [ROLE_USER ROLE_ADMIN]", got)
	}
	if claims.Issuer != "iamauth-test" {
		t.Errorf("issuer = %q, want iamauth-test", claims.Issuer)
	}
}

func TestRefreshTokenCarriesNoAuthorities(t *testing.T) {
	codec := testCodec(t)

	token, err := codec.IssueRefresh("alice@example.com")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	claims, err := codec.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if auths := claims.Authorities(); auths != nil {
		t.Errorf("authorities = %v, want none", auths)
	}
}

func TestValidateRejectsTamperedAndMalformed(t *testing.T) {
	codec := testCodec(t)

	otherCodec, err := NewCodec(Config{
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		Secret:     []byte("another-secret-another-secret-..."),
		Issuer:     "iamauth-test",
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	foreign, err := otherCodec.IssueAccess("alice@example.com", nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	for name, token := range map[string]string{
		"wrong key": foreign,
		"garbage":   "not-a-token",
		"empty":     "",
	} {
		if _, err := codec.Validate(token); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("%s: err = %v, want ErrTokenInvalid", name, err)
		}
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	codec := testCodec(t)
	expired := signedToken(t, jwtlib.SigningMethodHS256, testSecret, -time.Hour)

	if _, err := codec.Validate(expired); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestValidateRejectsUnsignedAlgorithm(t *testing.T) {
	codec := testCodec(t)

	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "alice@example.com",
			Issuer:    "iamauth-test",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).
		SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Validate(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestExpiryOfExpiredToken(t *testing.T) {
	codec := testCodec(t)
	wantExpiry := time.Now().Add(-time.Hour).Truncate(time.Second)
	expired := signedToken(t, jwtlib.SigningMethodHS256, testSecret, -time.Hour)

	expiry, err := codec.ExpiryOf(expired)
	if err != nil {
		t.Fatalf("ExpiryOf: %v", err)
	}
	if diff := expiry.Sub(wantExpiry); diff < -time.Second || diff > time.Second {
		t.Errorf("expiry = %v, want around %v", expiry, wantExpiry)
	}

	// an expired token must still fail normal validation
	if _, err := codec.Validate(expired); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Validate err = %v, want ErrTokenInvalid", err)
	}
}

func TestExpiryOfRejectsBadSignature(t *testing.T) {
	codec := testCodec(t)
	foreign := signedToken(t, jwtlib.SigningMethodHS256, []byte("another-secret-another-secret-.."), time.Hour)

	if _, err := codec.ExpiryOf(foreign); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestNewCodecRejectsBadConfig(t *testing.T) {
	base := Config{
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		Secret:     testSecret,
	}

	cases := map[string]func(*Config){
		"zero access ttl":          func(c *Config) { c.AccessTTL = 0 },
		"refresh below access":     func(c *Config) { c.RefreshTTL = time.Minute },
		"short secret":             func(c *Config) { c.Secret = []byte("too-short") },
		"negative leeway":          func(c *Config) { c.Leeway = -time.Second },
		"leeway above two minutes": func(c *Config) { c.Leeway = 3 * time.Minute },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if _, err := NewCodec(cfg); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func signedToken(t *testing.T, method jwtlib.SigningMethod, secret []byte, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "alice@example.com",
			Issuer:    "iamauth-test",
			IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token, err := jwtlib.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}
