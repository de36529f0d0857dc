package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"barbershop-backend/internal/schedule"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// timestamp accepts RFC3339 or a naive datetime assumed UTC.
	v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := schedule.ParseTimestamp(value)
		return err == nil
	})

	phoneRegex := regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return phoneRegex.MatchString(value)
	})

	currencyRegex := regexp.MustCompile(`^[A-Z]{3}$`)
	v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return currencyRegex.MatchString(value)
	})

	return &Validator{v: v}
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok {
		return ve
	}
	return nil
}
