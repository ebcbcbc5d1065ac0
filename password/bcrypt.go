package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks raw passwords against bcrypt hashes. The zero value uses
// bcrypt's default cost for hashing.
type Verifier struct {
	cost int
}

func NewVerifier() *Verifier {
	return &Verifier{cost: bcrypt.DefaultCost}
}

// NewVerifierWithCost is for tests and migrations; cost is clamped to the
// bcrypt-supported range.
func NewVerifierWithCost(cost int) *Verifier {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Verifier{cost: cost}
}

// Verify reports whether raw matches the stored hash. Comparison cost is
// constant with respect to the password contents.
func (v *Verifier) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// Hash produces a bcrypt hash of raw for storage.
func (v *Verifier) Hash(raw string) (string, error) {
	cost := v.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
