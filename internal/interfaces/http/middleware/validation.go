package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/erp/muhasebe/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// VATRates are the KDV rates accepted by the vat_rate tag, including the
// pre-2023 rates still seen on older documents
var VATRates = []float64{0, 1, 8, 10, 18, 20}

// SetupValidator configures gin's validator: JSON names in errors, decimal
// fields validated as numbers, and the percent, vat_rate and tax_number tags.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterValidations(v)
}

// RegisterValidations installs the custom tags on v
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("percent", validatePercent); err != nil {
		return err
	}
	if err := v.RegisterValidation("vat_rate", validateVATRate); err != nil {
		return err
	}
	return v.RegisterValidation("tax_number", validateTaxNumber)
}

func validatePercent(fl validator.FieldLevel) bool {
	f, ok := floatValue(fl.Field())
	return ok && f >= 0 && f <= 100
}

func validateVATRate(fl validator.FieldLevel) bool {
	f, ok := floatValue(fl.Field())
	if !ok {
		return false
	}
	for _, rate := range VATRates {
		if f == rate {
			return true
		}
	}
	return false
}

// validateTaxNumber accepts a 10 digit VKN or an 11 digit TCKN
func validateTaxNumber(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 10 && len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func floatValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	default:
		return 0, false
	}
}

// ValidationDetails turns a binding error into per-field details. Errors
// that are not tag violations, such as malformed JSON, yield nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make([]dto.ValidationDetail, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "percent":
		return "Must be a percentage between 0 and 100"
	case "vat_rate":
		return "Must be a KDV rate (0, 1, 8, 10, 18 or 20)"
	case "tax_number":
		return "Must be a 10 digit VKN or an 11 digit TCKN"
	default:
		return "Invalid value"
	}
}
