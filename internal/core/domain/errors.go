package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidResetToken  = errors.New("invalid password reset token")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidRole        = errors.New("invalid role")
	// ErrStore marks failures of the backing store itself (transient or not).
	ErrStore = errors.New("identity store error")
)

var (
	ErrEmailTaken    = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already in use", ErrConflict)
	ErrRoleConflict  = fmt.Errorf("%w: account already belongs to an exclusive role", ErrConflict)
)

// FieldError is a single field-level message suitable for re-rendering a form.
// An empty Field means the message applies to the form as a whole.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError groups field errors. It unwraps to its cause so callers can
// still match ErrEmailTaken, ErrRoleConflict and friends with errors.Is.
type ValidationError struct {
	Fields []FieldError
	cause  error
}

// NewValidationError builds a ValidationError around cause, which may be nil.
func NewValidationError(cause error, fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields, cause: cause}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			msgs = append(msgs, f.Message)
			continue
		}
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	if len(msgs) == 0 && e.cause != nil {
		return e.cause.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return e.cause }

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// PartialFailureError reports a workflow that wrote the account record but
// failed a later step. The account is left in the state reached so far.
type PartialFailureError struct {
	Step    string
	Account *Account
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("account %s partially updated: %s failed: %v", e.accountEmail(), e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) accountEmail() string {
	if e.Account == nil {
		return "<unknown>"
	}
	return e.Account.Email
}

// FieldErrors extracts field errors from err. Non-validation errors yield nil.
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
