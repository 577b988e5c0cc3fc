package source

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

const (
	bigQueryScheme = "bq://"

	// insertBatchSize keeps streaming inserts well under the request size limit.
	insertBatchSize = 500
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TransactionRow is the warehouse layout of an operations table.
type TransactionRow struct {
	OperationDate bigquery.NullDateTime `bigquery:"operation_date"` // NULLABLE DATETIME
	PaymentDate   bigquery.NullDate     `bigquery:"payment_date"`   // NULLABLE DATE
	CardNumber    bigquery.NullString   `bigquery:"card_number"`    // NULLABLE
	Status        bigquery.NullString   `bigquery:"status"`         // NULLABLE
	Amount        *big.Rat              `bigquery:"amount"`         // REQUIRED NUMERIC
	Currency      bigquery.NullString   `bigquery:"currency"`       // NULLABLE
	Category      bigquery.NullString   `bigquery:"category"`       // NULLABLE
	Description   bigquery.NullString   `bigquery:"description"`    // NULLABLE
}

// BigQuerySource reads operations from a table, e.g. bq://my-project.finance.operations.
type BigQuerySource struct {
	Project string
	Dataset string
	Table   string

	// Client is optional; when nil a client is created per call.
	Client *bigquery.Client
}

// NewBigQuerySource parses a bq://project.dataset.table URI.
// A two part reference (bq://dataset.table) falls back to defaultProject.
func NewBigQuerySource(uri, defaultProject string) (*BigQuerySource, error) {
	if !strings.HasPrefix(uri, bigQueryScheme) {
		return nil, fmt.Errorf("invalid BigQuery URI: %s", uri)
	}

	parts := strings.Split(strings.TrimPrefix(uri, bigQueryScheme), ".")
	if len(parts) == 2 {
		parts = append([]string{defaultProject}, parts...)
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid BigQuery URI (want project.dataset.table): %s", uri)
	}
	for _, p := range parts {
		if !identifierPattern.MatchString(p) {
			return nil, fmt.Errorf("invalid BigQuery identifier %q in %s", p, uri)
		}
	}

	return &BigQuerySource{Project: parts[0], Dataset: parts[1], Table: parts[2]}, nil
}

// Load queries every row of the table ordered by operation date.
func (s *BigQuerySource) Load(ctx context.Context) ([]domain.Transaction, error) {
	client := s.Client
	if client == nil {
		c, err := bigquery.NewClient(ctx, s.Project)
		if err != nil {
			return nil, fmt.Errorf("BigQuerySource.Load: %w: bigquery client: %w", domain.ErrSourceUnavailable, err)
		}
		defer c.Close()
		client = c
	}

	rows, err := queryTransactionsWithClient(ctx, client, s.tableRef())
	if err != nil {
		return nil, fmt.Errorf("BigQuerySource.Load: %w: %w", domain.ErrSourceUnavailable, err)
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, r.toTransaction())
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("table", s.tableRef()).
		Int("transactions", len(txs)).
		Msg("Transactions loaded")
	return txs, nil
}

// Export appends txs to the table, creating the table when it does not exist.
func (s *BigQuerySource) Export(ctx context.Context, txs []domain.Transaction) error {
	client := s.Client
	if client == nil {
		c, err := bigquery.NewClient(ctx, s.Project)
		if err != nil {
			return fmt.Errorf("BigQuerySource.Export: %w: bigquery client: %w", domain.ErrSourceUnavailable, err)
		}
		defer c.Close()
		client = c
	}

	if err := ensureTransactionsTable(ctx, client, s.tableRef()); err != nil {
		return fmt.Errorf("BigQuerySource.Export: %w", err)
	}

	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, newTransactionRow(tx))
	}

	table := client.DatasetInProject(s.Project, s.Dataset).Table(s.Table)
	if err := insertTransactionsWithClient(ctx, table, rows); err != nil {
		return fmt.Errorf("BigQuerySource.Export: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("table", s.tableRef()).
		Int("transactions", len(rows)).
		Msg("Transactions exported")
	return nil
}

func (s *BigQuerySource) tableRef() string {
	return s.Project + "." + s.Dataset + "." + s.Table
}

func queryTransactionsWithClient(ctx context.Context, client *bigquery.Client, table string) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			operation_date,
			payment_date,
			card_number,
			status,
			amount,
			currency,
			category,
			description
		FROM `+"`%s`"+`
		WHERE amount IS NOT NULL
		ORDER BY operation_date
	`, table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryTransactions: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("queryTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

func ensureTransactionsTable(ctx context.Context, client *bigquery.Client, table string) error {
	q := client.Query(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s`"+` (
			operation_date DATETIME,
			payment_date   DATE,
			card_number    STRING,
			status         STRING,
			amount         NUMERIC NOT NULL,
			currency       STRING,
			category       STRING,
			description    STRING
		)
	`, table))

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("ensureTransactionsTable: running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("ensureTransactionsTable: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("ensureTransactionsTable: job error: %w", err)
	}
	return nil
}

func insertTransactionsWithClient(ctx context.Context, table *bigquery.Table, rows []*TransactionRow) error {
	inserter := table.Inserter()
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("insertTransactions: inserting rows %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// newTransactionRow is the inverse of toTransaction. Empty strings become NULL.
func newTransactionRow(tx domain.Transaction) *TransactionRow {
	row := &TransactionRow{
		CardNumber:  nullString(tx.CardNumber),
		Status:      nullString(tx.Status),
		Amount:      tx.Amount.Rat(),
		Currency:    nullString(tx.Currency),
		Category:    nullString(tx.Category),
		Description: nullString(tx.Description),
	}
	if !tx.OperationDate.IsZero() {
		row.OperationDate = bigquery.NullDateTime{DateTime: civil.DateTimeOf(tx.OperationDate), Valid: true}
	}
	if paid, ok := domain.ParsePaymentDate(tx.PaymentDate); ok {
		row.PaymentDate = bigquery.NullDate{Date: civil.DateOf(paid), Valid: true}
	}
	return row
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func (r *TransactionRow) toTransaction() domain.Transaction {
	tx := domain.Transaction{
		CardNumber:  strings.TrimSpace(r.CardNumber.StringVal),
		Status:      r.Status.StringVal,
		Amount:      ratToDecimal(r.Amount),
		Currency:    r.Currency.StringVal,
		Category:    r.Category.StringVal,
		Description: r.Description.StringVal,
	}
	if r.OperationDate.Valid {
		tx.OperationDate = r.OperationDate.DateTime.In(time.UTC)
	}
	if r.PaymentDate.Valid {
		tx.PaymentDate = formatCivilDate(r.PaymentDate.Date)
	}
	return tx
}

// formatCivilDate renders a DATE column the way the bank export writes it.
func formatCivilDate(d civil.Date) string {
	return d.In(time.UTC).Format(domain.PaymentDateLayout)
}

// ratToDecimal converts a NUMERIC value; BigQuery NUMERIC has 9 fractional digits.
func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.FloatString(9))
	if err != nil {
		return decimal.Zero
	}
	return d
}
