package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/yakoovad/hackathon-portal/internal/model"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

func NewValidator(emailSuffix string) *Validator {
	return &Validator{validate: model.NewValidator(emailSuffix)}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}
