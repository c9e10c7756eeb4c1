package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-card-portal/internal/errors"
	"github.com/jrsteele09/go-card-portal/internal/utils"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the portal's custom rules registered
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names so messages match the API payloads
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// Money bounds in tags (gt, lte) apply to the decimal's value
		v.RegisterCustomTypeFunc(decimalValue, utils.Decimal{})

		// trimmed_min: length after trimming surrounding whitespace
		if err := v.RegisterValidation("trimmed_min", validateTrimmedMin); err != nil {
			panic(fmt.Sprintf("failed to register trimmed_min validator: %v", err))
		}
		instance = v
	})
	return instance
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(utils.Decimal); ok {
		return d.Float64()
	}
	return nil
}

func validateTrimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len([]rune(strings.TrimSpace(fl.Field().String()))) >= n
}

// Struct validates s and returns an error wrapping errors.ErrInvalidInput with readable messages
func Struct(s interface{}) error {
	if err := Validator().Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return fmt.Errorf("%w: %s", errors.ErrInvalidInput, strings.Join(messages, "; "))
	}
	return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min", "trimmed_min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
