package lrerror

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error kinds rendered in the `tag` field.
const (
	KindMissingAuthorization      = "missing-authorization"
	KindUnauthorized              = "unauthorized"
	KindNotFound                  = "not-found"
	KindUniqueConstraintViolation = "unique-constraint-violation"
	KindInvalidParameters         = "invalid-parameters"
)

// An LRError represents the error format that can be rendered by lorepo server.
type LRError struct {
	HTTPCode int    `json:"-"`
	Message  string `json:"errors"`
	Tag      string `json:"tag,omitempty"`
}

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	var lrerr *LRError
	if errors.As(err, &lrerr) {
		return lrerr.HTTPCode
	}
	return http.StatusInternalServerError
}

// Is returns true if err is an LRError of the given kind.
func Is(err error, tag string) bool {
	var lrerr *LRError
	return errors.As(err, &lrerr) && lrerr.Tag == tag
}

// New returns a new LRError with the given message.
func New(message string) *LRError {
	return &LRError{HTTPCode: http.StatusBadRequest, Message: message}
}

// NewWithTagCode returns a new LRError with the given code, tag and message.
func NewWithTagCode(code int, tag, message string) *LRError {
	return &LRError{HTTPCode: code, Tag: tag, Message: message}
}

// MissingAuthorization is returned when no token can be found for the request.
func MissingAuthorization() *LRError {
	return NewWithTagCode(http.StatusForbidden, KindMissingAuthorization, "Authorization token missing")
}

// Unauthorized is returned when the key is not allowed to access the item.
func Unauthorized() *LRError {
	return NewWithTagCode(http.StatusForbidden, KindUnauthorized, "Unauthorized")
}

// NotFound is returned when the requested item does not exist.
func NotFound() *LRError {
	return NewWithTagCode(http.StatusNotFound, KindNotFound, "Not found")
}

// UniqueConstraintViolation is returned when a unique field is already taken.
func UniqueConstraintViolation(message string) *LRError {
	return NewWithTagCode(http.StatusBadRequest, KindUniqueConstraintViolation, message)
}

// InvalidParameters is returned when the request params can not be used.
func InvalidParameters(message string) *LRError {
	return NewWithTagCode(http.StatusBadRequest, KindInvalidParameters, message)
}

// Error implements error interface.
func (e *LRError) Error() string {
	return e.Message
}
