// Package home builds the home page: a greeting, per-card spending for the
// current month, the largest operations and the user's market quotes.
package home

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/analysis"
	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/dvloznov/bank-analyzer/internal/marketdata"
	"github.com/dvloznov/bank-analyzer/internal/settings"
	"github.com/dvloznov/bank-analyzer/internal/source"
	"github.com/shopspring/decimal"
)

// CurrencyRate is the rate of one user currency in the quote currency.
type CurrencyRate struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// StockPrice is the latest price of one user stock.
type StockPrice struct {
	Stock string          `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

// Response is the home page document.
type Response struct {
	Greeting        string                  `json:"greeting"`
	Cards           []domain.CardSummary    `json:"cards"`
	TopTransactions []domain.TopTransaction `json:"top_transactions"`
	CurrencyRates   []CurrencyRate          `json:"currency_rates"`
	StockPrices     []StockPrice            `json:"stock_prices"`
}

// Composer assembles a Response from its collaborators.
type Composer struct {
	Source       source.Source
	SettingsFile string
	Currencies   marketdata.Client
	Stocks       marketdata.Client

	// Clock drives the greeting and the default date. Defaults to time.Now.
	Clock func() time.Time
	// TopN is the size of the top transactions list. Defaults to analysis.DefaultTopN.
	TopN int
}

// NewComposer returns a Composer with default clock and list size.
func NewComposer(src source.Source, settingsFile string, currencies, stocks marketdata.Client) *Composer {
	return &Composer{
		Source:       src,
		SettingsFile: settingsFile,
		Currencies:   currencies,
		Stocks:       stocks,
		Clock:        time.Now,
		TopN:         analysis.DefaultTopN,
	}
}

// Compose builds the home page for date (YYYY-MM-DD). An empty date means today.
// Transactions are scoped to date's month up to and including date.
func (c *Composer) Compose(ctx context.Context, date string) (*Response, error) {
	now := c.now()

	asOf := domain.DateOnly(now)
	if date != "" {
		d, err := domain.ParseReferenceDate(date)
		if err != nil {
			return nil, fmt.Errorf("Compose: %w", err)
		}
		asOf = d
	}

	log := logger.FromContext(ctx).With().Str("date", asOf.Format(domain.ISODateLayout)).Logger()
	ctx = logger.WithContext(ctx, log)

	txs, err := c.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Compose: load transactions: %w", err)
	}
	month := analysis.TransactionsForMonth(txs, asOf)

	topN := c.TopN
	if topN == 0 {
		topN = analysis.DefaultTopN
	}

	userSettings, err := settings.Load(ctx, c.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("Compose: %w", err)
	}

	rates, err := c.quotes(ctx, c.Currencies, userSettings.UserCurrencies)
	if err != nil {
		return nil, fmt.Errorf("Compose: currency rates: %w", err)
	}
	prices, err := c.quotes(ctx, c.Stocks, userSettings.UserStocks)
	if err != nil {
		return nil, fmt.Errorf("Compose: stock prices: %w", err)
	}

	resp := &Response{
		Greeting:        Greeting(now),
		Cards:           analysis.SummarizeCards(month),
		TopTransactions: analysis.TopTransactions(month, topN),
		CurrencyRates:   make([]CurrencyRate, 0, len(rates)),
		StockPrices:     make([]StockPrice, 0, len(prices)),
	}
	for _, q := range rates {
		resp.CurrencyRates = append(resp.CurrencyRates, CurrencyRate{Currency: q.Symbol, Rate: q.Value})
	}
	for _, q := range prices {
		resp.StockPrices = append(resp.StockPrices, StockPrice{Stock: q.Symbol, Price: q.Value})
	}

	log.Info().
		Int("transactions", len(txs)).
		Int("month_transactions", len(month)).
		Int("cards", len(resp.Cards)).
		Msg("Home page composed")
	return resp, nil
}

// quotes asks client for symbols. A missing API key degrades to no quotes so
// the rest of the page can still be shown.
func (c *Composer) quotes(ctx context.Context, client marketdata.Client, symbols []string) ([]marketdata.Quote, error) {
	if client == nil || len(symbols) == 0 {
		return nil, nil
	}

	quotes, err := client.Quotes(ctx, symbols)
	if errors.Is(err, marketdata.ErrMissingAPIKey) {
		log := logger.FromContext(ctx)
		log.Warn().Strs("symbols", symbols).Msg("Market data API key not set, skipping quotes")
		return nil, nil
	}
	return quotes, err
}

func (c *Composer) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}
