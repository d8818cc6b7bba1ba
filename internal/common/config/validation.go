package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// ValidationErrors converts the errors produced by validator into readable messages, one per field,
// combined into a single error.
func ValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var result *multierror.Error
	for _, fieldErr := range validationErrors {
		fieldName := stripPrefix(fieldErr.Namespace())
		switch fieldErr.Tag() {
		case "required":
			result = multierror.Append(result, fmt.Errorf("field %s is required but was not found", fieldName))
		default:
			result = multierror.Append(result, fmt.Errorf("field %s has invalid value %v: %s", fieldName, fieldErr.Value(), fieldErr.Tag()))
		}
	}
	return result.ErrorOrNil()
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
