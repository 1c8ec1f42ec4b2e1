package models

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedTime = errors.New("time must be HH:MM")
	ErrMalformedDate = errors.New("date must be DD/MM/YYYY")
	ErrNotFound      = errors.New("record not found")
)

// ValidationError rejects a row or an edit that must be corrected at the source
type ValidationError struct {
	Row     int // 1-based data row in the import, 0 for direct edits
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	prefix := ""
	if e.Row > 0 {
		prefix = fmt.Sprintf("row %d: ", e.Row)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s%s: %s (%q)", prefix, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Field, e.Message)
}

// ConversionError marks a cell that could not be converted; the field degrades to not recorded
type ConversionError struct {
	Row   int
	Field string
	Value string
}

func (e *ConversionError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: cannot convert %s value %q", e.Row, e.Field, e.Value)
	}
	return fmt.Sprintf("cannot convert %s value %q", e.Field, e.Value)
}

// PersistenceError wraps a document store failure
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPersistence reports whether err carries a PersistenceError
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
