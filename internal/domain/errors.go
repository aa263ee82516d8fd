package domain

import "errors"

var (
	// ErrInvalidCategory is returned for unknown or misplaced metric category tokens.
	ErrInvalidCategory = errors.New("invalid metric category")
	// ErrEmptyNamespace indicates that a resolved namespace was empty.
	ErrEmptyNamespace = errors.New("empty namespace")
	// ErrInvalidBatchSize indicates a batch limit below one.
	ErrInvalidBatchSize = errors.New("invalid batch size")
)
