package domain

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts used by the bank export and by callers.
const (
	PaymentDateLayout = "02.01.2006"
	DisplayDateLayout = "02.01.2006"
	ISODateLayout     = "2006-01-02"
)

// Parsing layouts also accept single-digit days and months ("1.2.2021").
const (
	operationDateParseLayout = "2.1.2006 15:04:05"
	paymentDateParseLayout   = "2.1.2006"
)

// ParseReferenceDate parses a caller supplied YYYY-MM-DD date.
func ParseReferenceDate(s string) (time.Time, error) {
	d, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ParsePaymentDate parses a payment date as exported by the bank (DD.MM.YYYY).
// ISO dates are accepted too since warehouse tables store them that way.
func ParsePaymentDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{paymentDateParseLayout, ISODateLayout} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ParseOperationDate parses the operation timestamp. A bare date is accepted.
func ParseOperationDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{operationDateParseLayout, paymentDateParseLayout, time.DateTime, ISODateLayout} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// DateOnly truncates t to midnight of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
