package services

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a service failure. Controllers map each kind to an
// HTTP status.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindUpload       ErrorKind = "upload"
	KindStorage      ErrorKind = "storage"
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is the only error type services return to callers. Message is safe to
// show to the CMS user verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func UnauthorizedError(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// UploadError wraps an asset host failure.
func UploadError(err error, msg string) error {
	return &Error{Kind: KindUpload, Message: msg, Err: errors.WithStack(err)}
}

// StorageError wraps a persistence failure.
func StorageError(err error, msg string) error {
	return &Error{Kind: KindStorage, Message: msg, Err: errors.WithStack(err)}
}

// KindOf returns the kind of a service error, or KindStorage for anything
// unclassified.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStorage
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
