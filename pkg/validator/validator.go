package validator

import (
	"github.com/go-playground/validator/v10"

	"hitrank/internal/domain/entity"
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("objectivetag", func(fl validator.FieldLevel) bool {
		return entity.IsObjectiveTag(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
