package repository

import "errors"

// Repository errors
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt indicates stored data could not be decoded.
	ErrCorrupt = errors.New("storage corrupted")
)
