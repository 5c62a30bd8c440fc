package errors

import (
	"errors"
)

// Payload kinds.
const (
	KindValidation = "ValidationError"
	KindAPI        = "ApiError"
	KindError      = "Error"
)

// Payload is the discriminated error shape returned at the tool-call boundary.
// Which optional fields are set depends on Kind.
type Payload struct {
	Kind    string   `json:"error"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Source  string   `json:"source,omitempty"`
	Code    Code     `json:"code,omitempty"`
	Details *Details `json:"details,omitempty"`
}

// ToPayload converts err into its boundary payload.
// Validation errors win over API errors when both appear in a chain.
func ToPayload(err error) Payload {
	var v *ValidationError
	if errors.As(err, &v) {
		return Payload{Kind: KindValidation, Message: v.Message, Field: v.Field}
	}
	var a *APIError
	if errors.As(err, &a) {
		msg := a.Message
		if a.Cause != nil {
			msg += ": " + a.Cause.Error()
		}
		d := a.Details
		return Payload{Kind: KindAPI, Message: msg, Source: a.Source, Details: &d}
	}
	p := Payload{Kind: KindError, Message: UserMessage(err)}
	var e *Error
	if errors.As(err, &e) {
		p.Code = e.Code
	}
	return p
}
