package domain

import "errors"

var (
	// ErrInvalidDate is returned when an explicitly supplied reference date cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrMalformedRow marks a row whose date fields cannot be parsed.
	// Such rows are dropped from date scoped views and only counted for logging.
	ErrMalformedRow = errors.New("malformed row")

	// ErrSourceUnavailable wraps failures of transaction sources and market data providers.
	ErrSourceUnavailable = errors.New("source unavailable")
)
