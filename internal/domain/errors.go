package domain

import "errors"

// Error kinds. Concrete errors wrap one of these so callers can classify with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrExchange = errors.New("exchange API error")
	ErrParse    = errors.New("parsing error")
	ErrHTTP     = errors.New("HTTP request error")
	ErrDB       = errors.New("database error")
	ErrConfig   = errors.New("configuration error")
	ErrInternal = errors.New("internal error")
)
