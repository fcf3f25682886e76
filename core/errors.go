package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error {
	return err.Err
}

// NotFoundError names the referenced record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", err.Resource, err.ID)
}

func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

// BackendUnavailableError is returned when the record store cannot be reached.
type BackendUnavailableError struct {
	Err error
}

func NewBackendUnavailableError(err error) error {
	return &BackendUnavailableError{Err: err}
}

func (err BackendUnavailableError) Error() string {
	if err.Err == nil {
		return "backend unavailable"
	}
	return "backend unavailable: " + err.Err.Error()
}

func (err BackendUnavailableError) Unwrap() error {
	return err.Err
}

func IsBackendUnavailable(err error) bool {
	var buErr *BackendUnavailableError
	return errors.As(err, &buErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
