package analysis

import (
	"sort"

	"github.com/dvloznov/bank-analyzer/internal/domain"
)

// DefaultTopN is the number of transactions shown on the home page.
const DefaultTopN = 5

// TopTransactions returns up to n transactions ordered by amount, largest first.
// The sort is stable, so equal amounts keep their input order.
func TopTransactions(txs []domain.Transaction, n int) []domain.TopTransaction {
	if n <= 0 || len(txs) == 0 {
		return []domain.TopTransaction{}
	}

	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})

	if n > len(sorted) {
		n = len(sorted)
	}

	result := make([]domain.TopTransaction, 0, n)
	for _, tx := range sorted[:n] {
		result = append(result, domain.TopTransaction{
			Date:        formatOperationDate(tx),
			Amount:      tx.Amount.Round(2),
			Category:    tx.Category,
			Description: tx.Description,
		})
	}
	return result
}

func formatOperationDate(tx domain.Transaction) string {
	if tx.OperationDate.IsZero() {
		return ""
	}
	return tx.OperationDate.Format(domain.DisplayDateLayout)
}
