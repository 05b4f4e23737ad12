package services

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// missingAdminHash is compared against when no account matches, so lookups
// for unknown administrators take as long as wrong passwords.
var missingAdminHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("greenway-no-such-admin"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
})

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Malformed hashes never match.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
