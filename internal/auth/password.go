package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of plain at the given cost. Costs
// outside bcrypt's supported range fall back to the library default
// rather than failing registration on a misconfigured AUTH_BCRYPT_COST.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// ComparePassword reports whether plain matches the stored bcrypt hash.
// The error is bcrypt's own; callers translate it to an auth failure.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
