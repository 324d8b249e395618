package objects

import (
	"errors"
	"fmt"
)

var (
	ErrNoController = errors.New("no controller")
)

type ErrorType string

const (
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
)

type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return string(e.Type)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}

	return t.Type == e.Type
}
