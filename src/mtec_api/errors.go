package mtec_api

import (
	"errors"
	"fmt"
)

var (
	ErrNoTable       = errors.New("no schedule table in markup")
	ErrMissingField  = errors.New("required field is missing")
	ErrUnexpectedRow = errors.New("unexpected row layout")
)

// FetchError is returned for network failures, timeouts and unexpected statuses. Callers retry it.
type FetchError struct {
	Op      string
	Status  int
	wrapped error
}

func NewFetchError(op string, status int, err error) error {
	return &FetchError{Op: op, Status: status, wrapped: err}
}

func (err *FetchError) Error() string {
	if err.Status != 0 {
		return fmt.Sprintf("failed to fetch %s: status %d: %v", err.Op, err.Status, err.wrapped)
	}
	return fmt.Sprintf("failed to fetch %s: %v", err.Op, err.wrapped)
}

func (err *FetchError) Unwrap() error {
	return err.wrapped
}

// ParseError means the markup does not match the expected layout. Row is 1-based, 0 when not row specific.
type ParseError struct {
	Row     int
	Field   string
	wrapped error
}

func NewParseError(row int, field string, err error) error {
	return &ParseError{Row: row, Field: field, wrapped: err}
}

func (err *ParseError) Error() string {
	switch {
	case err.Row != 0 && err.Field != "":
		return fmt.Sprintf("failed to parse row %d, field %s: %v", err.Row, err.Field, err.wrapped)
	case err.Row != 0:
		return fmt.Sprintf("failed to parse row %d: %v", err.Row, err.wrapped)
	case err.Field != "":
		return fmt.Sprintf("failed to parse %s: %v", err.Field, err.wrapped)
	}
	return fmt.Sprintf("failed to parse schedule: %v", err.wrapped)
}

func (err *ParseError) Unwrap() error {
	return err.wrapped
}

func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
