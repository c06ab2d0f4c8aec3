package vperr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInternalError   = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrInvalidArgument is returned when an operation precondition is violated,
	// e.g. aggregating an empty result set.
	ErrInvalidArgument = New(fiber.StatusBadRequest, CodeInvalidArgument, "invalid argument")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")
)

type Extras map[string]interface{}

type ProbeError struct {
	StatusCode int    `example:"400"`
	ErrorCode  string `example:"INVALID_REQUEST"`
	Message    string `example:"invalid request: some or all request parameters are invalid"`
	Extras     *Extras
}

func New(statusCode int, errorCode string, message string) *ProbeError {
	return &ProbeError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Msg returns a copy with a reworded message; the receiver stays untouched so
// the package-level sentinels remain immutable.
func (e ProbeError) Msg(format string, parts ...interface{}) *ProbeError {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e ProbeError) WithExtras(extras Extras) *ProbeError {
	e.Extras = &extras
	return &e
}

// NewInvalidViolations wraps field-level validation violations into an
// invalid request error.
func NewInvalidViolations(violations interface{}) *ProbeError {
	e := *ErrInvalidReq
	e.Extras = &Extras{
		"violations": violations,
	}
	return &e
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
