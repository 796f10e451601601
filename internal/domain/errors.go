package domain

import "errors"

var (
	ErrEmptyQuery      = errors.New("query text is empty")
	ErrUnknownTemplate = errors.New("unknown query template")
	ErrInvalidQuery    = errors.New("invalid query")
)
