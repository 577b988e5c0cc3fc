package analysis

import (
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/domain"
)

// Search returns the transactions whose description or category contains query,
// ignoring case. An empty query matches everything. Input order is kept.
func Search(txs []domain.Transaction, query string) []domain.Transaction {
	q := strings.ToLower(query)
	result := make([]domain.Transaction, 0)
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.Description), q) ||
			strings.Contains(strings.ToLower(tx.Category), q) {
			result = append(result, tx)
		}
	}
	return result
}
