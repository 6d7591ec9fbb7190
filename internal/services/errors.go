package services

import (
	"errors"
	"fmt"
	"strings"

	"catalog/internal/repositories"
	"catalog/internal/validation"
)

var (
	// ErrInvalidID is returned when an id is not in the store's identifier format.
	ErrInvalidID = repositories.ErrInvalidID
	// ErrNotFound is returned when no product has the given id.
	ErrNotFound = repositories.ErrNotFound
	// ErrValidation is the sentinel every *ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries every field violation found in one input.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), ", ")
}

// Messages returns one human readable message per violation.
func (e *ValidationError) Messages() []string {
	return e.Fields.Messages()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StorageError hides a storage failure behind a generic message. The cause is
// kept for logging and errors.Is checks.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageError passes domain errors through and wraps everything else.
func storageError(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// validationError converts a validator error into a *ValidationError.
func validationError(err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}
