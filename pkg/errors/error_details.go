package errors

import stderrors "errors"

// ErrorDetails represents detailed information about an error.
type ErrorDetails struct {
	// Message (required) is the human readable error message.
	// E.g. "poll interval must be positive".
	Message string

	// Code (required) is one of the ErrorCode values, as a string.
	Code string

	// Field (optional) is the related field the error occurred on, if any.
	Field string
}

// NewErrorDetails creates a new ErrorDetails struct with the given parameters.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// Error() is used to implement the Golang `error` interface.
func (e *ErrorDetails) Error() string {
	return e.Message
}

// ErrorCodeEquals checks whether a given `error` has a specific code.
// Wrapped errors are unwrapped until an ErrorDetails is found.
func ErrorCodeEquals(err error, code string) bool {
	var errDetails *ErrorDetails
	if !stderrors.As(err, &errDetails) {
		return false
	}

	return errDetails.Code == code
}

// DetailsFromError returns the first ErrorDetails in err's chain.
func DetailsFromError(err error) (*ErrorDetails, bool) {
	var errDetails *ErrorDetails
	if !stderrors.As(err, &errDetails) {
		return nil, false
	}

	return errDetails, true
}
