package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidStatus   = errors.New("invalid status: must be pending, processing, sent, or failed")
	ErrInvalidPriority = errors.New("invalid priority: must be urgent, high, medium, or low")
)
