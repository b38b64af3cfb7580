package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist for this user.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
