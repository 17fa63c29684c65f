package devfile

import "errors"

var (
	// ErrSourceUnavailable is returned when a descriptor or registry document
	// cannot be fetched or read
	ErrSourceUnavailable = errors.New("descriptor source unavailable")
)
