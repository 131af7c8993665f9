package handlers

import (
	"errors"
	"strings"
)

const GENERIC_FAILURE = "😔 Что-то пошло не так. Попробуйте позже."

// ErrInvalidInput carries a message meant for the user.
type ErrInvalidInput struct {
	message string
	wrapped error
}

func (err ErrInvalidInput) Error() string {
	if err.message != "" && err.wrapped != nil {
		return strings.Join([]string{err.message, err.wrapped.Error()}, "\n")
	}
	if err.message != "" {
		return err.message
	}
	return err.wrapped.Error()
}

func (err ErrInvalidInput) Unwrap() error {
	return err.wrapped
}

func NewInvalidInput(message string) error {
	return &ErrInvalidInput{message: message}
}

func NewInvalidInputWrapped(message string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrInvalidInput{message: message, wrapped: err}
}

// UserMessage is the reply shown to the user when a handler fails.
func UserMessage(err error) string {
	var invalid *ErrInvalidInput
	if errors.As(err, &invalid) && invalid.message != "" {
		return invalid.message
	}
	return GENERIC_FAILURE
}
