package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the account does not exist, so both
// login failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("no-such-admin"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
})

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword returns nil when plain matches the bcrypt hash.
func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// DummyHash returns a valid bcrypt hash that no real password is expected to match.
func DummyHash() string {
	return dummyHash()
}
