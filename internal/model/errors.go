package model

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyPaid is returned when a paid fine is paid again.
	ErrAlreadyPaid = errors.New("the fine has already been paid")

	// ErrNoFineRequired is returned when a fine is requested for a
	// transaction that was returned strictly before its due date.
	ErrNoFineRequired = errors.New("the book was returned before the due date, no fine required")

	// ErrFineExists is returned when a transaction already carries a fine.
	ErrFineExists = errors.New("a fine already exists for this transaction")
)

// InvalidStateReason names the business rule a borrow or return violated.
type InvalidStateReason string

const (
	ReasonBookUnavailable InvalidStateReason = "BookUnavailable"
	ReasonOutOfStock      InvalidStateReason = "OutOfStock"
	ReasonAlreadyBorrowed InvalidStateReason = "AlreadyBorrowed"
	ReasonNotBorrowed     InvalidStateReason = "NotBorrowed"
	ReasonAlreadyReturned InvalidStateReason = "AlreadyReturned"
)

// NotFoundError reports that an entity lookup came up empty.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Entity, e.ID)
}

// NewNotFound builds a NotFoundError for the given entity kind and key.
func NewNotFound(entity string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// InvalidStateError reports a business-rule violation during circulation.
type InvalidStateError struct {
	Reason  InvalidStateReason
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

// NewInvalidState builds an InvalidStateError with the given reason.
func NewInvalidState(reason InvalidStateReason, message string) *InvalidStateError {
	return &InvalidStateError{Reason: reason, Message: message}
}

// ValidationError reports a malformed request field, such as an empty id.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}
