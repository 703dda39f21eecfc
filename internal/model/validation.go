package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const DefaultEmailSuffix = "@vitapstudent.ac.in"

// NewValidator returns a validator with the "institutional" tag bound to the
// given email domain suffix.
func NewValidator(suffix string) *validator.Validate {
	if suffix == "" {
		suffix = DefaultEmailSuffix
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("institutional", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(fl.Field().String(), suffix)
	})

	return v
}

// DescribeValidation flattens validator errors into a single readable message.
func DescribeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describeField(fe))
	}
	return strings.Join(parts, "; ")
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Namespace())
	case "institutional":
		return fmt.Sprintf("%s must be an institutional email", fe.Namespace())
	case "min", "max":
		return fmt.Sprintf("%s must contain 1 to 2 additional members", fe.Namespace())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag())
	}
}
