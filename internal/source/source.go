// Package source loads bank operations from local exports and Google Cloud
// backends. Every backend yields rows through the same column decoder, so
// the analysis code never sees where the data came from.
package source

import (
	"context"
	"errors"
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/domain"
)

// ErrNoSource is returned when no transactions source is configured.
var ErrNoSource = errors.New("no transactions source configured")

// Source produces the full list of transactions.
type Source interface {
	Load(ctx context.Context) ([]domain.Transaction, error)
}

// Options carry backend settings that are not part of the URI.
type Options struct {
	GCPProject            string
	SheetsCredentialsFile string
}

// Open returns the Source for uri:
//
//	gs://bucket/path/file.xlsx        object in Cloud Storage (.xlsx or .csv)
//	bq://project.dataset.table        BigQuery table
//	sheets://spreadsheetID/SheetName  Google Sheets tab
//	anything else                     local .xlsx or .csv file
//
// Open does not touch the backend; connection errors surface from Load.
func Open(uri string, opts Options) (Source, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return nil, ErrNoSource
	case strings.HasPrefix(uri, gcsScheme):
		if _, _, err := ParseGCSURI(uri); err != nil {
			return nil, err
		}
		return &GCSSource{URI: uri, Fetcher: StorageFetcher{}}, nil
	case strings.HasPrefix(uri, bigQueryScheme):
		return NewBigQuerySource(uri, opts.GCPProject)
	case strings.HasPrefix(uri, sheetsScheme):
		return NewSheetsSource(uri, opts.SheetsCredentialsFile)
	default:
		return &FileSource{Path: uri}, nil
	}
}

// Static wraps an in-memory slice, used when transactions are already loaded.
type Static []domain.Transaction

// Load returns the slice itself.
func (s Static) Load(context.Context) ([]domain.Transaction, error) {
	return s, nil
}
