package services

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the store, the service layer and the HTTP handlers.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// ErrNotification marks a failed email dispatch. It never undoes a write.
	ErrNotification = errors.New("notification failed")

	ErrDuplicateRegistration = fmt.Errorf("%w: this child is already registered for the program", ErrConflict)
	ErrDuplicateTicket       = fmt.Errorf("%w: ticket number already in use", ErrConflict)
	ErrInvalidTransition     = fmt.Errorf("%w: status transition not allowed", ErrConflict)
	ErrPaymentSettled        = fmt.Errorf("%w: payment already completed", ErrConflict)
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found in one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}
