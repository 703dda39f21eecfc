package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	identifierPrefix      = "HTX"
	maxIdentifierAttempts = 5
)

// NewTeamIdentifier returns the prefix followed by a number in [1000, 9999].
func NewTeamIdentifier() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", identifierPrefix, 1000+n.Int64()), nil
}
