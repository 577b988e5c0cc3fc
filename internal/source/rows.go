package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/shopspring/decimal"
)

// Column names of the bank operations export.
const (
	ColumnOperationDate = "Дата операции"
	ColumnPaymentDate   = "Дата платежа"
	ColumnCardNumber    = "Номер карты"
	ColumnStatus        = "Статус"
	ColumnAmount        = "Сумма операции"
	ColumnCurrency      = "Валюта операции"
	ColumnCategory      = "Категория"
	ColumnDescription   = "Описание"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var requiredColumns = []string{ColumnOperationDate, ColumnAmount}

// columnIndex maps column names to their position in the header row.
type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

// get returns the trimmed cell of the named column, or "" when the column or
// the cell is absent. Spreadsheet APIs drop trailing empty cells.
func (c columnIndex) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// DecodeRows turns a header row followed by data rows into transactions.
// Blank rows are skipped. Rows with an unparseable amount are dropped and
// counted; an unparseable operation date leaves OperationDate zero so date
// scoped views can exclude the row.
func DecodeRows(ctx context.Context, rows [][]string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	txs := make([]domain.Transaction, 0, len(rows))
	if len(rows) == 0 {
		return txs, nil
	}

	cols, err := newColumnIndex(rows[0])
	if err != nil {
		return nil, fmt.Errorf("DecodeRows: header: %w", err)
	}

	var malformed int
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		tx, err := decodeRow(cols, row)
		if err != nil {
			malformed++
			log.Debug().Err(err).Int("row", i+2).Msg("Skipping row")
			continue
		}
		if tx.OperationDate.IsZero() {
			malformed++
			log.Debug().Err(domain.ErrMalformedRow).Int("row", i+2).Msg("Operation date not parsed")
		}
		txs = append(txs, tx)
	}

	if malformed > 0 {
		log.Warn().Int("malformed", malformed).Int("rows", len(txs)).Msg("Source contains malformed rows")
	}
	return txs, nil
}

func decodeRow(cols columnIndex, row []string) (domain.Transaction, error) {
	amount, err := ParseAmount(cols.get(row, ColumnAmount))
	if err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		PaymentDate: cols.get(row, ColumnPaymentDate),
		CardNumber:  cols.get(row, ColumnCardNumber),
		Status:      cols.get(row, ColumnStatus),
		Amount:      amount,
		Currency:    cols.get(row, ColumnCurrency),
		Category:    cols.get(row, ColumnCategory),
		Description: cols.get(row, ColumnDescription),
	}
	if t, ok := domain.ParseOperationDate(cols.get(row, ColumnOperationDate)); ok {
		tx.OperationDate = t
	}
	return tx, nil
}

// ParseAmount accepts both "-160.89" and the localized "-160,89" / "-1 160,89".
// A lone comma followed by exactly three digits ("1,160") could be either a
// thousands or a decimal separator and is rejected rather than guessed.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", domain.ErrMalformedRow)
	}

	switch commas := strings.Count(s, ","); {
	case commas == 0:
	case strings.Contains(s, "."), commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	default:
		whole, frac, _ := strings.Cut(s, ",")
		whole = strings.TrimLeft(whole, "+-")
		if len(frac) == 3 && whole != "" && whole != "0" {
			return decimal.Zero, fmt.Errorf("%w: ambiguous amount %q", domain.ErrMalformedRow, s)
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", domain.ErrMalformedRow, s)
	}
	return d, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
