package domain

import "errors"

var (
	// ErrNotFound: no record matches the identifier in either key space.
	ErrNotFound = errors.New("hotel not found")
	// ErrConflict: conditional replace kept losing against concurrent writers.
	ErrConflict = errors.New("hotel modified concurrently")
)
