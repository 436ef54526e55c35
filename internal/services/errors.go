package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ServiceError so the transport layer can pick a status code.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindForbidden
	KindBadRequest
	KindConflict
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad request"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// ServiceError is a domain failure with a human-readable message and an optional cause.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

func NotFound(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to e and returns it.
func (e *ServiceError) Wrap(err error) *ServiceError {
	e.Err = err
	return e
}

// KindOf returns the kind of the outermost ServiceError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
