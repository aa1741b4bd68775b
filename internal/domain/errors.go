package domain

import "errors"

var (
	// ErrEmptyTitle rejects an add with a blank title after trimming.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrEmptyURL rejects an add with a blank url after trimming.
	ErrEmptyURL = errors.New("url must not be empty")
)
