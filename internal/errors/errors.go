// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when credentials or a token are rejected.
var ErrUnauthorized = errors.New("unauthorized")

// NotFoundError signals a missing row. Repositories return it instead of a nil row.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

func NewNotFound(entity string, id int) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Helper constructors
func NewCampaignNotFound(id int) error {
	return NewNotFound("campaign", id)
}

func NewCallHistoryNotFound(id int) error {
	return NewNotFound("call history item", id)
}

func NewUserNotFound(id int) error {
	return NewNotFound("user", id)
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is always caller-correctable and maps to HTTP 400.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s %s", e.Message, e.Fields[0].Field, e.Fields[0].Message)
}

func NewValidation(message string, fields ...FieldError) error {
	return &ValidationError{Message: message, Fields: fields}
}

// ConflictError is returned when a unique constraint would be violated.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

func NewConflict(entity, field, value string) error {
	return &ConflictError{Entity: entity, Field: field, Value: value}
}
