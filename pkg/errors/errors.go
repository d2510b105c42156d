package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidID       = errors.New("invalid document id")
	ErrDuplicateID     = errors.New("document already exists")
	ErrInvalidText     = errors.New("text contains control characters")
	ErrEmptyMinusWord  = errors.New("empty minus word")
	ErrDoubleMinusWord = errors.New("double minus word")
	ErrUnknownDocument = errors.New("document not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets every validation kind match ErrInvalidInput as well as its own
// sentinel.
func (e *AppError) Is(target error) bool {
	if target != ErrInvalidInput {
		return false
	}
	switch e.Err {
	case ErrInvalidID, ErrInvalidText, ErrEmptyMinusWord, ErrDoubleMinusWord, ErrInvalidArgument:
		return true
	}
	return false
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Invalidf builds a 400 error for one of the input-validation kinds.
func Invalidf(sentinel error, format string, args ...any) *AppError {
	return Newf(sentinel, http.StatusBadRequest, format, args...)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUnknownDocument):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidText),
		errors.Is(err, ErrEmptyMinusWord),
		errors.Is(err, ErrDoubleMinusWord),
		errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}

}
