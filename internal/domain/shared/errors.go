package shared

import (
	"fmt"

	"github.com/samber/oops"
)

// Domain error codes
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodePermissionDenied    = "PERMISSION_DENIED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeDestinationNotFound = "DESTINATION_NOT_FOUND"
	ErrCodeMalformedData       = "MALFORMED_DATA"
	ErrCodeIO                  = "IO_ERROR"
	ErrCodeActorNotFound       = "ACTOR_NOT_FOUND"
)

// NewDomainError creates a new domain error using oops
func NewDomainError(code string, message string) error {
	return oops.
		Code(code).
		In("domain").
		Errorf("%s", message)
}

// NewDomainErrorf creates a new domain error with formatted message
func NewDomainErrorf(code string, format string, args ...interface{}) error {
	return oops.
		Code(code).
		In("domain").
		Errorf(format, args...)
}

// WrapDomainError wraps an existing error with domain context.
// oops reports the innermost code of a chain, so a cause that already
// carries a different code is folded into the message instead of wrapped.
func WrapDomainError(err error, code string, format string, args ...interface{}) error {
	if inner := ErrorCode(err); inner != "" && inner != code {
		return NewDomainErrorf(code, "%s: %s", fmt.Sprintf(format, args...), err.Error())
	}
	return oops.
		Code(code).
		In("domain").
		Wrapf(err, format, args...)
}

// ErrorCode returns the domain code carried by err, or "" for foreign errors
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := fmt.Sprint(oopsErr.Code())
	if code == "<nil>" {
		return ""
	}
	return code
}

// HasCode reports whether err carries the given domain code
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}

func ErrInvalidInput(msg string) error {
	return NewDomainError(ErrCodeInvalidInput, msg)
}

func ErrPermissionDenied(action string) error {
	return NewDomainErrorf(ErrCodePermissionDenied, "permission denied: %s", action)
}

func ErrNotFound(resource string) error {
	return NewDomainErrorf(ErrCodeNotFound, "%s not found", resource)
}

func ErrActorNotFound(actorID string) error {
	return NewDomainErrorf(ErrCodeActorNotFound, "actor %s not found", actorID)
}

func ErrDestinationNotFound(destination string) error {
	return NewDomainErrorf(ErrCodeDestinationNotFound, "warp or dimension not found: %s", destination)
}

func ErrMalformedData(source string, err error) error {
	if err == nil {
		return NewDomainErrorf(ErrCodeMalformedData, "malformed warp data in %s", source)
	}
	return WrapDomainError(err, ErrCodeMalformedData, "malformed warp data in %s", source)
}

func ErrIO(op string, err error) error {
	if err == nil {
		return NewDomainError(ErrCodeIO, op)
	}
	return WrapDomainError(err, ErrCodeIO, "%s", op)
}
