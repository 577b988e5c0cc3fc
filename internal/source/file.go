package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FileSource reads a local .xlsx or .csv export.
type FileSource struct {
	Path string
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]domain.Transaction, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("FileSource.Load: %w: %w", domain.ErrSourceUnavailable, err)
	}

	txs, err := decodeFile(ctx, filepath.Base(s.Path), data)
	if err != nil {
		return nil, fmt.Errorf("FileSource.Load: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("path", s.Path).
		Int("transactions", len(txs)).
		Msg("Transactions loaded")
	return txs, nil
}

// decodeFile picks a decoder by file extension.
func decodeFile(ctx context.Context, name string, data []byte) ([]domain.Transaction, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", name, domain.ErrSourceUnavailable, err)
	}

	txs, err := DecodeRows(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", name, domain.ErrSourceUnavailable, err)
	}
	return txs, nil
}

// readWorkbook returns the rows of the first sheet as displayed, except the
// amount column, which is read raw so number formats like #,##0 cannot
// change its value.
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	cols, err := newColumnIndex(rows[0])
	if err != nil {
		// DecodeRows reports the missing column.
		return rows, nil
	}
	amountCol := cols[ColumnAmount]

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read raw sheet %q: %w", sheets[0], err)
	}
	for i := 1; i < len(rows) && i < len(raw); i++ {
		if amountCol < len(rows[i]) && amountCol < len(raw[i]) {
			rows[i][amountCol] = raw[i][amountCol]
		}
	}
	return rows, nil
}

// readCSV accepts comma or semicolon separated exports.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}
