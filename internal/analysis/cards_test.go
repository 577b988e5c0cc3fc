package analysis

import (
	"testing"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func cardTx(card, amt string) domain.Transaction {
	return domain.Transaction{CardNumber: card, Amount: amount(amt), Category: "Супермаркеты"}
}

func TestSummarizeCards(t *testing.T) {
	tests := []struct {
		name string
		txs  []domain.Transaction
		want []domain.CardSummary
	}{
		{
			name: "two cards and a cardless transfer",
			txs: []domain.Transaction{
				cardTx("*7197", "-160.89"),
				cardTx("*7197", "-64.00"),
				cardTx("*5091", "-564.00"),
				cardTx("*5091", "-7.07"),
				cardTx("", "-800.00"),
			},
			want: []domain.CardSummary{
				{LastDigits: "7197", TotalSpent: amount("224.89"), Cashback: amount("2.25")},
				{LastDigits: "5091", TotalSpent: amount("571.07"), Cashback: amount("5.71")},
			},
		},
		{
			name: "income does not reduce spending",
			txs: []domain.Transaction{
				cardTx("4276380012347197", "-100.00"),
				cardTx("4276380012347197", "500.00"),
			},
			want: []domain.CardSummary{
				{LastDigits: "7197", TotalSpent: amount("100.00"), Cashback: amount("1.00")},
			},
		},
		{
			name: "card with refunds only is still listed",
			txs: []domain.Transaction{
				cardTx("*1111", "25.50"),
				cardTx("*1111", "0"),
			},
			want: []domain.CardSummary{
				{LastDigits: "1111", TotalSpent: decimal.Zero, Cashback: decimal.Zero},
			},
		},
		{
			name: "first occurrence order",
			txs: []domain.Transaction{
				cardTx("*2222", "-1"),
				cardTx("*1111", "-1"),
				cardTx("*2222", "-1"),
			},
			want: []domain.CardSummary{
				{LastDigits: "2222", TotalSpent: amount("2"), Cashback: amount("0.02")},
				{LastDigits: "1111", TotalSpent: amount("1"), Cashback: amount("0.01")},
			},
		},
		{
			name: "short card number kept whole",
			txs:  []domain.Transaction{cardTx("*12", "-10")},
			want: []domain.CardSummary{
				{LastDigits: "*12", TotalSpent: amount("10"), Cashback: amount("0.1")},
			},
		},
		{
			name: "cashback follows the rounded total",
			txs:  []domain.Transaction{cardTx("*3333", "-100.4996")},
			want: []domain.CardSummary{
				{LastDigits: "3333", TotalSpent: amount("100.50"), Cashback: amount("1.01")},
			},
		},
		{
			name: "empty input",
			txs:  nil,
			want: []domain.CardSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeCards(tt.txs)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SummarizeCards() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarizeCards_TotalsNeverNegative(t *testing.T) {
	txs := []domain.Transaction{
		cardTx("*1", "-0.004"),
		cardTx("*1", "1000"),
		cardTx("*2", "-33.335"),
	}
	for _, s := range SummarizeCards(txs) {
		if s.TotalSpent.IsNegative() {
			t.Errorf("card %s: total spent %s is negative", s.LastDigits, s.TotalSpent)
		}
		if !s.Cashback.Equal(Cashback(s.TotalSpent)) {
			t.Errorf("card %s: cashback %s, want %s", s.LastDigits, s.Cashback, Cashback(s.TotalSpent))
		}
	}
}

func TestCashback_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		spent string
		want  string
	}{
		{"224.89", "2.25"},
		{"571.07", "5.71"},
		{"0.5", "0.01"},
		{"100", "1"},
		{"0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.spent, func(t *testing.T) {
			got := Cashback(amount(tt.spent))
			if !got.Equal(amount(tt.want)) {
				t.Errorf("Cashback(%s) = %s, want %s", tt.spent, got, tt.want)
			}
		})
	}
}
