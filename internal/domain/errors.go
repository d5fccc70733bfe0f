package domain

import "errors"

var (
	ErrMissingTransactionID = errors.New("transaction id is required")
	ErrInvalidTransition    = errors.New("unrecognized transition name")
	ErrNotFound             = errors.New("not found")
)
