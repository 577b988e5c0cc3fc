// Package marketdata fetches currency exchange rates and stock prices for the
// home page. Providers are hidden behind Client so the composer and its tests
// never touch the network.
package marketdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrMissingAPIKey is returned when quotes are requested without a provider key.
var ErrMissingAPIKey = errors.New("market data API key is not configured")

// Quote is the latest value of a symbol.
type Quote struct {
	Symbol string
	Value  decimal.Decimal
}

// Client returns quotes for the requested symbols. Symbols the provider has no
// quote for are omitted from the result rather than reported as errors.
type Client interface {
	Quotes(ctx context.Context, symbols []string) ([]Quote, error)
}
