package documents

import "errors"

var (
	ErrNotFound           = errors.New("document not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrFileTooLarge       = errors.New("file too large")
	ErrPresignUnavailable = errors.New("presigned downloads not supported by store")
)
