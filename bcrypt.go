package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	defaultHasherOnce sync.Once
	defaultHasher     *Hasher
)

func getDefaultHasher() *Hasher {
	defaultHasherOnce.Do(func() {
		// default params always validate
		defaultHasher, _ = NewHasher()
	})
	return defaultHasher
}

// HashPassword will generate a password hash with the default hasher
func HashPassword(password string) (string, error) {
	return getDefaultHasher().Hash(password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	ok, err := getDefaultHasher().Verify(hash, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// Accounts imported from the previous storefront carry bcrypt hashes. They
// still verify and get rehashed on the next successful login.
func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

func compareBcrypt(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
}
