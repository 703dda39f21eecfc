package repository

import "github.com/pkg/errors"

var (
	// ErrAlreadyExists reports a unique constraint violation, such as a taken team identifier.
	ErrAlreadyExists = errors.New("record already exists")
	ErrNotFound      = errors.New("record not found")
)
