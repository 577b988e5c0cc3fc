package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/shopspring/decimal"
)

// ReportWindowMonths is the length of the trailing window of the category report.
const ReportWindowMonths = 3

// Clock returns the current time. Tests replace it to pin "today".
var Clock = time.Now

// SpendingByCategory reports the spends of one category over the three months
// leading up to asOf (YYYY-MM-DD). An empty asOf means today.
//
// An unparseable asOf yields domain.ErrInvalidDate. Rows with an unparseable
// payment date are skipped.
func SpendingByCategory(txs []domain.Transaction, category, asOf string) ([]domain.SpendingReportRow, error) {
	var ref time.Time
	if strings.TrimSpace(asOf) == "" {
		ref = domain.DateOnly(Clock())
	} else {
		d, err := domain.ParseReferenceDate(asOf)
		if err != nil {
			return nil, fmt.Errorf("SpendingByCategory: %w", err)
		}
		ref = d
	}
	return SpendingByCategoryAsOf(txs, category, ref), nil
}

// SpendingByCategoryAsOf is SpendingByCategory for an already parsed reference date.
// The window is [asOf - 3 months, asOf], both ends inclusive.
func SpendingByCategoryAsOf(txs []domain.Transaction, category string, asOf time.Time) []domain.SpendingReportRow {
	end := domain.DateOnly(asOf)
	start := SubtractMonths(end, ReportWindowMonths)
	target := strings.ToLower(category)

	result := make([]domain.SpendingReportRow, 0)
	for _, tx := range txs {
		if strings.ToLower(tx.Category) != target || !tx.IsSpend() {
			continue
		}
		paid, ok := domain.ParsePaymentDate(tx.PaymentDate)
		if !ok {
			continue
		}
		if paid.Before(start) || paid.After(end) {
			continue
		}
		result = append(result, domain.SpendingReportRow{
			Category:    tx.Category,
			Amount:      tx.Amount,
			PaymentDate: paid.Format(domain.ISODateLayout),
		})
	}
	return result
}

// TotalSpending sums the report rows as a positive amount rounded to kopecks.
func TotalSpending(rows []domain.SpendingReportRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Sub(r.Amount)
	}
	return total.Round(2)
}

// SubtractMonths moves t back by the given number of calendar months. When the
// day does not exist in the target month it is clamped to that month's last day,
// so May 31 minus three months is Feb 28 (or 29).
func SubtractMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := y*12 + int(m) - 1 - months
	ty, tm := total/12, time.Month(total%12+1)
	if last := daysIn(ty, tm); d > last {
		d = last
	}
	h, mi, s := t.Clock()
	return time.Date(ty, tm, d, h, mi, s, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
