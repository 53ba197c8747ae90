package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrTooLarge         = errors.New("request body too large")
	ErrMethodNotAllowed = errors.New("method not allowed")
)
