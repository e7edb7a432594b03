package models

import "fmt"

// InvalidFieldError reports a form field that failed client-side checks.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func FieldError(field string) error {
	return &InvalidFieldError{Field: field, Reason: "is required"}
}
