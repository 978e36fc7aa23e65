package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a raw password with bcrypt at the default cost.
func HashPassword(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether raw matches the stored bcrypt hash.
func VerifyPassword(hash string, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
