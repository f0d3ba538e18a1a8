package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dukerupert/afisha"
	"github.com/go-playground/validator/v10"
)

// Validator provides input validation using go-playground/validator.
//
// It backs echo's c.Validate() for request payloads and is also used to
// check the store configuration at startup.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
//
// Usage in server setup:
//
//	e.Validator = validation.NewValidator()
func NewValidator() *Validator {
	v := validator.New()

	// Report json names when present so messages match request payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct using its validation tags.
//
// Validation failures are returned as an *afisha.Error with code EINVALID
// and one entry per failing field.
//
// Usage in handlers:
//
//	var req CreateImageKindRequest
//	if err := c.Bind(&req); err != nil {
//	    return err
//	}
//	if err := c.Validate(&req); err != nil {
//	    return err
//	}
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return afisha.ErrorWithFields(FormatValidationErrors(validationErrors))
	}
	return err
}

// FormatValidationErrors converts validator errors to user-friendly messages.
//
// Example output:
//
//	{
//	  "title": "is required",
//	  "thumbWidth": "must be greater than 0",
//	  "BaseDir": "must be an existing directory"
//	}
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["_error"] = err.Error()
		return errs
	}

	for _, fieldErr := range validationErrors {
		fieldName := fieldErr.Field()

		switch fieldErr.Tag() {
		case "required":
			errs[fieldName] = "is required"
		case "required_if":
			errs[fieldName] = fmt.Sprintf("is required when %s", fieldErr.Param())
		case "dir":
			errs[fieldName] = "must be an existing directory"
		case "min":
			if fieldErr.Kind() == reflect.String {
				errs[fieldName] = fmt.Sprintf("must be at least %s characters", fieldErr.Param())
			} else {
				errs[fieldName] = fmt.Sprintf("must be at least %s", fieldErr.Param())
			}
		case "max":
			if fieldErr.Kind() == reflect.String {
				errs[fieldName] = fmt.Sprintf("must be no more than %s characters", fieldErr.Param())
			} else {
				errs[fieldName] = fmt.Sprintf("must be no more than %s", fieldErr.Param())
			}
		case "uuid":
			errs[fieldName] = "must be a valid UUID"
		case "gte":
			errs[fieldName] = fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
		case "gt":
			errs[fieldName] = fmt.Sprintf("must be greater than %s", fieldErr.Param())
		case "oneof":
			errs[fieldName] = fmt.Sprintf("must be one of: %s", fieldErr.Param())
		default:
			errs[fieldName] = fmt.Sprintf("failed validation: %s", fieldErr.Tag())
		}
	}

	return errs
}
