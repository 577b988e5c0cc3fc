package home

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/marketdata"
	"github.com/dvloznov/bank-analyzer/internal/source"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// mockClient is a mock implementation of marketdata.Client for testing.
type mockClient struct {
	quotes []marketdata.Quote
	err    error
	asked  []string
}

func (m *mockClient) Quotes(ctx context.Context, symbols []string) ([]marketdata.Quote, error) {
	m.asked = append(m.asked, symbols...)
	return m.quotes, m.err
}

// failingSource always fails to load.
type failingSource struct{ err error }

func (f failingSource) Load(context.Context) ([]domain.Transaction, error) { return nil, f.err }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(opDate, card, amt, category, description string) domain.Transaction {
	d, _ := domain.ParseOperationDate(opDate)
	return domain.Transaction{OperationDate: d, CardNumber: card, Amount: amount(amt), Category: category, Description: description}
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_settings.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time { return time.Date(2022, 1, 15, hour, 0, 0, 0, time.UTC) }
}

var operations = source.Static{
	tx("31.12.2021 16:44:00", "*7197", "-160.89", "Супермаркеты", "Колхоз"),
	tx("31.12.2021 16:42:04", "*7197", "-64.00", "Супермаркеты", "Колхоз"),
	tx("31.12.2021 01:23:42", "*5091", "-564.00", "Различные товары", "Ozon.ru"),
	tx("30.12.2021 17:50:17", "*5091", "5046.00", "Пополнения", "Пополнение"),
	tx("30.11.2021 12:00:00", "*7197", "-999.00", "Супермаркеты", "Прошлый месяц"),
	tx("01.01.2022 10:00:00", "*7197", "-1.00", "Супермаркеты", "Следующий месяц"),
}

func TestComposer_Compose(t *testing.T) {
	currencies := &mockClient{quotes: []marketdata.Quote{{Symbol: "USD", Value: amount("73.21")}}}
	stocks := &mockClient{quotes: []marketdata.Quote{{Symbol: "AAPL", Value: amount("150.12")}}}
	settingsFile := writeSettings(t, `{"user_currencies": ["usd"], "user_stocks": ["AAPL"]}`)

	c := NewComposer(operations, settingsFile, currencies, stocks)
	c.Clock = fixedClock(9)

	got, err := c.Compose(context.Background(), "2021-12-31")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	want := &Response{
		Greeting: "Доброе утро!",
		Cards: []domain.CardSummary{
			{LastDigits: "7197", TotalSpent: amount("224.89"), Cashback: amount("2.25")},
			{LastDigits: "5091", TotalSpent: amount("564.00"), Cashback: amount("5.64")},
		},
		TopTransactions: []domain.TopTransaction{
			{Date: "30.12.2021", Amount: amount("5046.00"), Category: "Пополнения", Description: "Пополнение"},
			{Date: "31.12.2021", Amount: amount("-64.00"), Category: "Супермаркеты", Description: "Колхоз"},
			{Date: "31.12.2021", Amount: amount("-160.89"), Category: "Супермаркеты", Description: "Колхоз"},
			{Date: "31.12.2021", Amount: amount("-564.00"), Category: "Различные товары", Description: "Ozon.ru"},
		},
		CurrencyRates: []CurrencyRate{{Currency: "USD", Rate: amount("73.21")}},
		StockPrices:   []StockPrice{{Stock: "AAPL", Price: amount("150.12")}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compose() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"USD"}, currencies.asked); diff != "" {
		t.Errorf("currency symbols (-want +got):\n%s", diff)
	}
}

func TestComposer_JSONShape(t *testing.T) {
	c := NewComposer(operations, filepath.Join(t.TempDir(), "missing.json"), nil, nil)
	c.Clock = fixedClock(20)

	resp, err := c.Compose(context.Background(), "2021-12-31")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, fragment := range []string{
		`"greeting":"Добрый вечер!"`,
		`"last_digits":"7197","total_spent":224.89,"cashback":2.25`,
		`"currency_rates":[]`,
		`"stock_prices":[]`,
	} {
		if !strings.Contains(string(data), fragment) {
			t.Errorf("JSON %s\ndoes not contain %s", data, fragment)
		}
	}
}

func TestComposer_DefaultDate(t *testing.T) {
	c := NewComposer(operations, filepath.Join(t.TempDir(), "missing.json"), nil, nil)
	c.Clock = func() time.Time { return time.Date(2022, 1, 1, 23, 30, 0, 0, time.UTC) }

	resp, err := c.Compose(context.Background(), "")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if resp.Greeting != "Доброй ночи!" {
		t.Errorf("Greeting = %q", resp.Greeting)
	}
	if len(resp.TopTransactions) != 1 || resp.TopTransactions[0].Description != "Следующий месяц" {
		t.Errorf("TopTransactions = %+v, want only January", resp.TopTransactions)
	}
}

func TestComposer_Errors(t *testing.T) {
	settingsFile := writeSettings(t, `{"user_currencies": ["USD"], "user_stocks": []}`)
	loadErr := errors.New("boom")

	tests := []struct {
		name     string
		composer *Composer
		date     string
		wantErr  error
	}{
		{
			name:     "invalid date",
			composer: NewComposer(operations, settingsFile, nil, nil),
			date:     "31.12.2021",
			wantErr:  domain.ErrInvalidDate,
		},
		{
			name:     "source failure",
			composer: NewComposer(failingSource{err: loadErr}, settingsFile, nil, nil),
			date:     "2021-12-31",
			wantErr:  loadErr,
		},
		{
			name:     "market data failure",
			composer: NewComposer(operations, settingsFile, &mockClient{err: domain.ErrSourceUnavailable}, nil),
			date:     "2021-12-31",
			wantErr:  domain.ErrSourceUnavailable,
		},
		{
			name:     "malformed settings",
			composer: NewComposer(operations, writeSettings(t, `{`), nil, nil),
			date:     "2021-12-31",
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.composer.Compose(context.Background(), tt.date)
			if err == nil {
				t.Fatal("Compose() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestComposer_MissingAPIKeySkipsQuotes(t *testing.T) {
	settingsFile := writeSettings(t, `{"user_currencies": ["USD"], "user_stocks": ["AAPL"]}`)
	noKey := &mockClient{err: marketdata.ErrMissingAPIKey}

	resp, err := NewComposer(operations, settingsFile, noKey, noKey).Compose(context.Background(), "2021-12-31")
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(resp.CurrencyRates) != 0 || len(resp.StockPrices) != 0 {
		t.Errorf("quotes = %+v %+v, want none", resp.CurrencyRates, resp.StockPrices)
	}
	if len(resp.Cards) != 2 {
		t.Errorf("Cards = %+v", resp.Cards)
	}
}
