package crud

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that reports fields by their JSON names.
//
// decimal.Decimal fields are validated as their canonical string and accept three
// extra tags: nonnegative, scale=N (at most N fractional digits) and intdigits=N (at
// most N digits before the decimal point).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && !d.IsNegative()
	})
	_ = v.RegisterValidation("scale", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		places, err := strconv.ParseInt(fl.Param(), 10, 32)
		return ok && err == nil && d.Equal(d.Round(int32(places)))
	})
	_ = v.RegisterValidation("intdigits", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		digits, err := strconv.ParseInt(fl.Param(), 10, 32)
		return ok && err == nil && d.Abs().LessThan(decimal.New(1, int32(digits)))
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	if fl.Field().Kind() != reflect.String {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

// check merges binding problems reported by the caller with struct tag validation.
// It returns nil when the input is structurally valid.
func check(v *validator.Validate, entity any, binding FieldErrors) error {
	fields := FieldErrors{}
	for k, msg := range binding {
		fields[k] = msg
	}

	if err := v.Struct(entity); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fe := range validationErrors {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = message(fe)
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "nonnegative":
		return "must not be negative"
	case "scale":
		return fmt.Sprintf("must have at most %s decimal places", fe.Param())
	case "intdigits":
		return fmt.Sprintf("must have at most %s digits before the decimal point", fe.Param())
	default:
		return "failed on rule: " + fe.Tag()
	}
}
