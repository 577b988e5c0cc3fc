package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	functionExchangeRate = "CURRENCY_EXCHANGE_RATE"
	functionGlobalQuote  = "GLOBAL_QUOTE"
)

// Options configures an Alpha Vantage client.
type Options struct {
	BaseURL           string
	APIKey            string
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// AlphaVantage implements Client against the Alpha Vantage query API.
// One request is made per symbol, throttled to the configured rate.
type AlphaVantage struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter

	function   string
	toCurrency string
}

// NewCurrencyClient returns a client quoting each currency in toCurrency.
func NewCurrencyClient(opts Options, toCurrency string) *AlphaVantage {
	c := newAlphaVantage(opts)
	c.function = functionExchangeRate
	c.toCurrency = strings.ToUpper(toCurrency)
	return c
}

// NewStockClient returns a client quoting stock tickers.
func NewStockClient(opts Options) *AlphaVantage {
	c := newAlphaVantage(opts)
	c.function = functionGlobalQuote
	return c
}

func newAlphaVantage(opts Options) *AlphaVantage {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 5
	}
	return &AlphaVantage{
		httpClient: httpClient,
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

// Quotes fetches the latest value for each symbol in order.
func (c *AlphaVantage) Quotes(ctx context.Context, symbols []string) ([]Quote, error) {
	log := logger.FromContext(ctx).With().Str("function", c.function).Logger()

	quotes := make([]Quote, 0, len(symbols))
	if len(symbols) == 0 {
		return quotes, nil
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	for _, symbol := range symbols {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("Quotes: rate limiter: %w", err)
		}

		value, ok, err := c.fetch(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Warn().Str("symbol", symbol).Msg("No quote available")
			continue
		}

		log.Info().Str("symbol", symbol).Str("value", value.String()).Msg("Quote fetched")
		quotes = append(quotes, Quote{Symbol: symbol, Value: value})
	}

	return quotes, nil
}

func (c *AlphaVantage) fetch(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	params := url.Values{}
	params.Set("function", c.function)
	params.Set("apikey", c.apiKey)
	if c.function == functionExchangeRate {
		params.Set("from_currency", symbol)
		params.Set("to_currency", c.toCurrency)
	} else {
		params.Set("symbol", symbol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("fetch %s: build request: %w", symbol, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("fetch %s: %w: %w", symbol, domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, false, fmt.Errorf("fetch %s: %w: status %d", symbol, domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, false, fmt.Errorf("fetch %s: decode response: %w", symbol, err)
	}

	raw := extractValue(c.function, payload)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, nil
	}
	return value, true, nil
}

// extractValue digs the quote out of the provider's nested, numbered keys.
func extractValue(function string, payload map[string]json.RawMessage) string {
	section, key := "Global Quote", "05. price"
	if function == functionExchangeRate {
		section, key = "Realtime Currency Exchange Rate", "5. Exchange Rate"
	}

	body, ok := payload[section]
	if !ok {
		return ""
	}
	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	return strings.TrimSpace(fields[key])
}
