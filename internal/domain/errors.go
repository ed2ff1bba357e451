package domain

import "errors"

var (
	ErrNotFound       = errors.New("endpoint not found")
	ErrInvalidURL     = errors.New("invalid endpoint url")
	ErrInvalidName    = errors.New("endpoint name is required")
	ErrInvalidTimeout = errors.New("probe timeout must be positive")
)
