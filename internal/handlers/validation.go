package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/paddygate/paddygate/internal/models"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// ValidationError names the first offending field by its JSON path
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// Global validator instance (reused across all handlers)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return models.ValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("mailaddr", func(fl validator.FieldLevel) bool {
		return models.ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("variety", func(fl validator.FieldLevel) bool {
		return models.RiceVariety(fl.Field().String()).Valid()
	})
	return v
}

// ValidateRequest validates a request struct using go-playground/validator.
// Only the first failure is reported.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &ValidationError{
			Field:   fieldPath(ve[0]),
			Message: formatValidationError(ve[0]),
		}
	}
	return fmt.Errorf("validation failed: %w", err)
}

// fieldPath drops the struct name from the namespace: "profile.contact.phone".
func fieldPath(fe validator.FieldError) string {
	parts := strings.SplitN(fe.Namespace(), ".", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return fe.Field()
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email", "mailaddr":
		return "must be a valid email address"
	case "phone10":
		return "must be a 10 digit phone number"
	case "variety":
		return "must be one of: Basmati, Red Rice, White Rice, Brown Rice"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have exactly %s elements", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// decodeAndValidate reads the JSON body into dst and validates it, writing a
// 400 and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := pkghttp.DecodeJSON(r, dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "bad_request", ve.Error(), ve.Field)
			return false
		}
		pkghttp.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}
