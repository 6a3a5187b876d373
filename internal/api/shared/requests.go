package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/nutrition-api/internal/domain"
)

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// iso8601 accepts the timestamp forms understood by domain.ParseTimestamp.
	_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseTimestamp(fl.Field().String())
		return err == nil
	})
	return v
}

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return validate.Struct(v)
}
