package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidEvent indicates an inbound payment event is missing its provider
// transaction id or is otherwise structurally unusable.
var ErrInvalidEvent = errors.New("invalid payment event")

// ErrInvalidAmount indicates a payment or withdrawal amount is not a positive finite value.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrAccountResolution indicates the target account could not be resolved or auto-provisioned.
var ErrAccountResolution = errors.New("account resolution failed")

// ErrProviderSubmission indicates the payment provider rejected an outbound request.
var ErrProviderSubmission = errors.New("provider submission failed")

// ErrInvalidTransition indicates a withdrawal state change that the state machine forbids.
var ErrInvalidTransition = errors.New("invalid withdrawal state transition")

// AppError carries a status code alongside a message and a wrapped cause.
// Used mainly at the repository boundary for unexpected persistence failures.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
