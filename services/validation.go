package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"crediario/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrPaymentAlreadyPaid = errors.New("payment already paid")
)

// ValidationError carries the user-facing messages of a rejected input.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(messages ...string) error {
	return &ValidationError{Messages: messages}
}

// Clock returns the current time; tests replace it with a fixed one.
type Clock func() time.Time

func today(now Clock) string {
	return models.FormatDate(now())
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of dto and joins the failures into one error.
func validateStruct(v *validator.Validate, dto interface{}) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return invalid(err.Error())
	}

	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "campo "+e.Field()+" é obrigatório")
		case "gt":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ser maior que "+e.Param())
		case "lte", "max":
			errorMessages = append(errorMessages, "campo "+e.Field()+" excede o máximo de "+e.Param())
		case "min":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ter ao menos "+e.Param())
		case "email":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ser um e-mail válido")
		case "datetime":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve estar no formato AAAA-MM-DD")
		case "oneof":
			errorMessages = append(errorMessages, "campo "+e.Field()+" deve ser um de: "+e.Param())
		default:
			errorMessages = append(errorMessages, "campo "+e.Field()+" é inválido")
		}
	}
	return invalid(errorMessages...)
}

func requirePositive(field string, value decimal.Decimal) error {
	if !value.IsPositive() {
		return invalid("campo " + field + " deve ser maior que 0")
	}
	return nil
}

func requireNonNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return invalid("campo " + field + " não pode ser negativo")
	}
	return nil
}
