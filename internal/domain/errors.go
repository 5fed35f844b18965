package domain

import "errors"

// Sentinel errors the HTTP layer maps onto status codes.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not authorized")
	ErrInternal  = errors.New("internal error")
)
