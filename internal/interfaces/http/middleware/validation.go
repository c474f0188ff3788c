package middleware

import (
	"errors"

	"github.com/erp/smarterp/internal/infrastructure/validation"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes gin's binding validator report fields by their
// JSON names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(validation.JSONTagName)
	}
}

// ValidationDetails lists the failing fields of a binding error. It
// returns nil for errors that are not field validation failures, such as
// malformed JSON.
func ValidationDetails(err error) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: validation.Message(fe),
		})
	}
	return details
}
