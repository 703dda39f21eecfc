package auth

import "github.com/pkg/errors"

var (
	ErrInvalidToken         = errors.New("invalid admin token")
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrMissingToken         = errors.New("missing bearer token")
)
