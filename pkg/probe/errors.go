package probe

import "errors"

var (
	ErrTimeout            = errors.New("worker readiness timed out")
	ErrUnexpectedResponse = errors.New("unexpected worker response")
)
