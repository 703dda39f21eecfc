package api

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/service"
)

// ProcessRequest runs steps in order and stops at the first error.
func ProcessRequest[T any](e echo.Context, req *T, steps ...func(echo.Context, *T) error) error {
	for _, step := range steps {
		if err := step(e, req); err != nil {
			return err
		}
	}
	return nil
}

func bindStep[T any](e echo.Context, req *T) error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}
	return nil
}

func validateStep[T any](e echo.Context, req *T) error {
	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, model.DescribeValidation(err))
	}
	return nil
}

func asServiceError(err error) *service.Error {
	var serr *service.Error
	if errors.As(err, &serr) {
		return serr
	}
	return service.NewError(service.ErrorCodeUnspecified, err.Error())
}
