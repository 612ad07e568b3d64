package service

import "errors"

var (
	// ErrInvalidInput wraps every validation failure of caller-supplied arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a user has no holdings on record.
	ErrNotFound = errors.New("not found")
	// ErrNoRepository is returned by user lookups when no database is configured.
	ErrNoRepository = errors.New("holdings repository not configured")
)
