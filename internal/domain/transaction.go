package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are rendered as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction represents one row of the bank operations export.
// Rows are never mutated after a source produces them; every view builds
// new structures from them.
type Transaction struct {
	OperationDate time.Time       `json:"operation_date"` // from "Дата операции", zero when unparseable
	PaymentDate   string          `json:"payment_date"`   // raw "Дата платежа" (DD.MM.YYYY), may be malformed
	CardNumber    string          `json:"card_number"`    // "Номер карты", empty for transfers and cash
	Status        string          `json:"status"`         // "Статус"
	Amount        decimal.Decimal `json:"amount"`         // "Сумма операции" (spend = negative, income = positive)
	Currency      string          `json:"currency"`       // "Валюта операции"
	Category      string          `json:"category"`       // "Категория"
	Description   string          `json:"description"`    // "Описание"
}

// IsSpend reports whether money left the account.
func (t Transaction) IsSpend() bool {
	return t.Amount.IsNegative()
}

// HasCard reports whether the transaction was made with a card.
func (t Transaction) HasCard() bool {
	return t.CardNumber != ""
}

// CardSummary aggregates spending for a single card.
type CardSummary struct {
	LastDigits string          `json:"last_digits"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	Cashback   decimal.Decimal `json:"cashback"`
}

// TopTransaction is the home page projection of a transaction.
type TopTransaction struct {
	Date        string          `json:"date"` // DD.MM.YYYY
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// SpendingReportRow is one row of the spending by category report.
type SpendingReportRow struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"` // YYYY-MM-DD
}
