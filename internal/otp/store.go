package otp

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultCodeLength = 6

var ErrInvalidTTL = errors.New("otp: ttl must be positive")

// Store holds at most one pending code per email.
type Store interface {
	// Save records code for email, replacing any pending code and resetting its expiry.
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume removes the pending code for email and reports true only when it
	// matched code exactly and had not expired. Concurrent callers with the
	// same matching code observe exactly one true.
	Consume(ctx context.Context, email, code string) (bool, error)
}

// GenerateCode returns a random numeric code of the given length.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", errors.Wrap(err, "read random digit")
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
