package users

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// IsHashed reports whether stored looks like a bcrypt hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

// SecretMatches compares a presented secret with a stored one. Hashed
// secrets go through bcrypt, plain ones through a constant-time compare.
func SecretMatches(stored, secret string) bool {
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(secret)) == 1
}

// HashSecret returns a bcrypt hash suitable for the password field.
func HashSecret(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func nameMatches(stored, username string) bool {
	return strings.EqualFold(stored, username)
}

// find returns the first user matching both name and secret.
func find(list []User, username, secret string) *User {
	for i := range list {
		u := list[i]
		if nameMatches(u.UserName, username) && SecretMatches(u.Password, secret) {
			return &u
		}
	}
	return nil
}
