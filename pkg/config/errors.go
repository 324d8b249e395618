package config

import "fmt"

type InvalidValueError struct {
	Key   string
	Value interface{}
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value of %s: %v", e.Key, e.Value)
}
