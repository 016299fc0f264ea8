package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Meta carries pagination metadata on list responses.
type Meta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type successEnvelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

type errorBody struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Data: data})
}

// JSONList writes a success envelope with pagination metadata.
func JSONList(w http.ResponseWriter, status int, data any, meta Meta) {
	writeJSON(w, status, successEnvelope{Data: data, Meta: &meta})
}

// RespondError writes the error envelope for any error, normalizing untyped
// errors to INTERNAL_ERROR.
func RespondError(w http.ResponseWriter, err error) {
	apiErr := AsError(err)
	writeJSON(w, Status(apiErr.Code), errorEnvelope{Error: errorBody{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// DecodeValid decodes a JSON body into target and runs struct validation.
// Malformed JSON maps to INVALID_INPUT; failed validation maps to
// VALIDATION_ERROR with per-field details.
func DecodeValid(r *http.Request, v *validator.Validate, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return NewError(CodeInvalidInput, "request body required")
		}
		return WrapError(CodeInvalidInput, "malformed request body", err)
	}
	if err := v.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]any, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fieldName(fe)] = validationMessage(fe)
			}
			return NewError(CodeValidationError, "validation failed").WithDetails(details)
		}
		return WrapError(CodeValidationError, "validation failed", err)
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
