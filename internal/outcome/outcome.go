// Package outcome defines the failure taxonomy shared by the intake
// pipeline and the adjudication engine. Every non-success result is a
// *Failure carrying a kind, a stable machine-readable code, a human
// message and optional structured detail, so callers can branch without
// parsing prose.
package outcome

import "net/http"

// Kind classifies a failure for the API boundary.
type Kind string

const (
	// KindValidation covers malformed input and field-format violations.
	// Clients must change the payload; the request is never retried as-is.
	KindValidation Kind = "validation_error"
	// KindBlock covers irreconcilable business conflicts such as an NPI
	// identity conflict or a same-day duplicate order.
	KindBlock Kind = "block"
	// KindWarning is not a true failure: the submission is paused and the
	// caller is expected to resubmit the identical payload with the
	// confirmation flag set.
	KindWarning Kind = "warning"
)

// Warning is one soft conflict accumulated during adjudication.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldError is one field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failure is the uniform non-success result of the intake pipeline.
// It implements error so it propagates through ordinary return values.
type Failure struct {
	Kind    Kind        `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

func (f *Failure) Error() string { return f.Message }

// HTTPStatus maps the failure kind to its response status.
func (f *Failure) HTTPStatus() int {
	switch f.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindBlock, KindWarning:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Validation builds a validation failure.
func Validation(code, message string, detail interface{}) *Failure {
	return &Failure{Kind: KindValidation, Code: code, Message: message, Detail: detail}
}

// FieldValidation builds a validation failure carrying field errors.
func FieldValidation(errs []FieldError) *Failure {
	return &Failure{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: "Request validation failed.",
		Detail:  map[string]interface{}{"errors": errs},
	}
}

// Block builds a block failure.
func Block(code, message string, detail interface{}) *Failure {
	return &Failure{Kind: KindBlock, Code: code, Message: message, Detail: detail}
}

// ConfirmationRequired builds the pause outcome surfacing the accumulated
// warnings. The caller proceeds by resubmitting with confirm=true.
func ConfirmationRequired(warnings []Warning) *Failure {
	return &Failure{
		Kind:    KindWarning,
		Code:    "CONFIRMATION_REQUIRED",
		Message: "Potential duplicates detected. Review the warnings and resubmit with confirm=true to proceed.",
		Detail:  map[string]interface{}{"warnings": warnings},
	}
}
