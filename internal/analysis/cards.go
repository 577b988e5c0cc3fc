// Package analysis holds the pure aggregation and filtering routines behind
// the home page, search and category report views. Nothing here logs or
// keeps state: every function reads its input slice and returns new values.
package analysis

import (
	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// CashbackDivisor is the flat cashback rate: one unit per hundred spent.
var CashbackDivisor = decimal.NewFromInt(100)

// SummarizeCards groups transactions by card number in first-occurrence order
// and reports the spent total and cashback for each card.
//
// Only negative amounts count as spending. Totals and cashback are rounded half
// away from zero to two decimals; cashback is derived from the reported total.
// Transactions without a card number are ignored.
func SummarizeCards(txs []domain.Transaction) []domain.CardSummary {
	var order []string
	spent := make(map[string]decimal.Decimal)

	for _, tx := range txs {
		if !tx.HasCard() {
			continue
		}
		total, seen := spent[tx.CardNumber]
		if !seen {
			order = append(order, tx.CardNumber)
		}
		if tx.IsSpend() {
			total = total.Sub(tx.Amount)
		}
		spent[tx.CardNumber] = total
	}

	result := make([]domain.CardSummary, 0, len(order))
	for _, card := range order {
		total := spent[card].Round(2)
		result = append(result, domain.CardSummary{
			LastDigits: lastDigits(card),
			TotalSpent: total,
			Cashback:   Cashback(total),
		})
	}
	return result
}

// Cashback returns the flat-rate cashback for a spent total, rounded to two decimals.
func Cashback(totalSpent decimal.Decimal) decimal.Decimal {
	return totalSpent.Div(CashbackDivisor).Round(2)
}

func lastDigits(card string) string {
	r := []rune(card)
	if len(r) <= 4 {
		return card
	}
	return string(r[len(r)-4:])
}
