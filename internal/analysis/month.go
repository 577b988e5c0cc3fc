package analysis

import (
	"time"

	"github.com/dvloznov/bank-analyzer/internal/domain"
)

// TransactionsForMonth keeps the transactions operated between the first day of
// date's month and date itself, inclusive. Rows without an operation date are dropped.
func TransactionsForMonth(txs []domain.Transaction, date time.Time) []domain.Transaction {
	end := domain.DateOnly(date)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	result := make([]domain.Transaction, 0)
	for _, tx := range txs {
		if tx.OperationDate.IsZero() {
			continue
		}
		day := domain.DateOnly(tx.OperationDate)
		if day.Before(start) || day.After(end) {
			continue
		}
		result = append(result, tx)
	}
	return result
}
