package storage

import "errors"

var (
	// ErrInvalidInput indicates caller-supplied data is missing or malformed:
	// an absent filename, an empty file key, or incomplete provider config.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the requested object is absent from the store
	// or came back with no body.
	ErrNotFound = errors.New("file not found")

	// ErrUnexpectedState wraps any failure from the underlying object-store
	// client, including network and signing failures. No retry is attempted.
	ErrUnexpectedState = errors.New("unexpected storage state")
)
