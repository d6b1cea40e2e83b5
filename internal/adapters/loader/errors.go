package loader

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrEmptySource = errors.New("source contains no items")
	ErrReadSource  = errors.New("read item source")
)
