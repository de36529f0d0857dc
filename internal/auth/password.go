package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func ComparePassword(hash, password string) error {
	if hash == "" || password == "" {
		return errors.New("missing hash or password")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// VerifyPassword accepts either a bcrypt hash or a plaintext value as the
// stored credential, so deployments can migrate ADMIN_PASSWORD to a hashed
// secret gradually. Plaintext comparison is constant-time.
func VerifyPassword(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return ComparePassword(stored, presented) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
