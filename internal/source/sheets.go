package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const sheetsScheme = "sheets://"

// SheetsSource reads operations from a Google Sheets tab,
// e.g. sheets://1AbC.../Operations. An empty SheetName reads the first tab.
type SheetsSource struct {
	SpreadsheetID string
	SheetName     string

	// CredentialsFile is an optional service account key; without it
	// Application Default Credentials are used.
	CredentialsFile string

	// Service is optional; when nil one is created per Load.
	Service *gsheet.Service
}

// NewSheetsSource parses a sheets://spreadsheetID[/SheetName] URI.
func NewSheetsSource(uri, credentialsFile string) (*SheetsSource, error) {
	if !strings.HasPrefix(uri, sheetsScheme) {
		return nil, fmt.Errorf("invalid Sheets URI: %s", uri)
	}

	id, sheet, _ := strings.Cut(strings.TrimPrefix(uri, sheetsScheme), "/")
	if id == "" {
		return nil, fmt.Errorf("invalid Sheets URI (no spreadsheet id): %s", uri)
	}
	return &SheetsSource{
		SpreadsheetID:   id,
		SheetName:       sheet,
		CredentialsFile: credentialsFile,
	}, nil
}

// Load reads the formatted values of the sheet and decodes them.
func (s *SheetsSource) Load(ctx context.Context) ([]domain.Transaction, error) {
	svc := s.Service
	if svc == nil {
		var err error
		svc, err = s.newService(ctx)
		if err != nil {
			return nil, fmt.Errorf("SheetsSource.Load: %w: %w", domain.ErrSourceUnavailable, err)
		}
	}

	rng := s.SheetName
	if rng == "" {
		sheet, err := firstSheetTitle(ctx, svc, s.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("SheetsSource.Load: %w: %w", domain.ErrSourceUnavailable, err)
		}
		rng = sheet
	}

	resp, err := svc.Spreadsheets.Values.Get(s.SpreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("SheetsSource.Load: %w: read %q: %w", domain.ErrSourceUnavailable, rng, err)
	}

	txs, err := DecodeRows(ctx, cellsToRows(resp.Values))
	if err != nil {
		return nil, fmt.Errorf("SheetsSource.Load: %w: %w", domain.ErrSourceUnavailable, err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("spreadsheet_id", s.SpreadsheetID).
		Str("range", rng).
		Int("transactions", len(txs)).
		Msg("Transactions loaded")
	return txs, nil
}

func (s *SheetsSource) newService(ctx context.Context) (*gsheet.Service, error) {
	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	if s.CredentialsFile != "" {
		opts = append(opts, goption.WithCredentialsFile(s.CredentialsFile))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func firstSheetTitle(ctx context.Context, svc *gsheet.Service, spreadsheetID string) (string, error) {
	ss, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get spreadsheet: %w", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	return ss.Sheets[0].Properties.Title, nil
}

// cellsToRows flattens the API's untyped cells into strings.
func cellsToRows(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		row := make([]string, len(v))
		for i, cell := range v {
			if cell != nil {
				row[i] = fmt.Sprint(cell)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
