package services

import "net/http"

// APIError is a business-rule violation carrying the status it maps to.
// Anything that is not an APIError (or store.ErrNotFound) reaching the
// handler boundary is treated as an internal failure and hidden from the
// caller.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func Invalid(message string) error {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

func Unauthorized(message string) error {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) error {
	return &APIError{Status: http.StatusForbidden, Message: message}
}

func NotFound(message string) error {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

func Conflict(message string) error {
	return &APIError{Status: http.StatusConflict, Message: message}
}

func Gone(message string) error {
	return &APIError{Status: http.StatusGone, Message: message}
}
