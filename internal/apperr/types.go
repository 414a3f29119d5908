package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code represents a specific error condition
type Code string

const (
	// Session errors
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"

	// Todo list errors
	CodeRejected   Code = "TODO_REJECTED"
	CodeOutOfRange Code = "OUT_OF_RANGE"

	// Store errors
	CodeStoreCorrupt Code = "STORE_CORRUPT"
	CodeStoreIO      Code = "STORE_IO"

	// General errors
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// Error is a coded error with optional details and cause.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code.
func Wrap(err error, code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether the outermost *Error in err's chain carries code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the outermost code from an error chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
