package images

import "errors"

var (
	ErrInvalidName      = errors.New("invalid image name")
	ErrImageUnavailable = errors.New("image not available in registry")
)
