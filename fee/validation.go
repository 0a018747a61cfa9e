package fee

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationFailure describes a Fee that could not be stored because it is invalid
type ValidationFailure struct {
	Record   *Fee                `json:"record"`
	Messages map[string][]string `json:"messages"`
}

func (v *ValidationFailure) Error() string {
	fields := make([]string, 0, len(v.Messages))
	for field := range v.Messages {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(v.Messages[field], ", ")))
	}
	return "Invalid fee (" + strings.Join(parts, "; ") + ")"
}

// validateFee returns nil or a *ValidationFailure
func validateFee(f *Fee) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	failure := &ValidationFailure{
		Record:   f,
		Messages: make(map[string][]string),
	}
	if vErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range vErrs {
			failure.Messages[fe.Field()] = append(failure.Messages[fe.Field()], describe(fe))
		}
	} else {
		failure.Messages["fee"] = []string{err.Error()}
	}
	return failure
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value_is_mandatory"
	case "gte":
		return "must_be_greater_than_or_equal_to_" + fe.Param()
	case "lte":
		return "must_be_less_than_or_equal_to_" + fe.Param()
	case "iso4217":
		return "value_is_invalid_currency"
	default:
		return "value_is_invalid"
	}
}
