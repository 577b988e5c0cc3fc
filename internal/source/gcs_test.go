package source

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/bank-analyzer/internal/domain"
)

// mockFetcher is a mock implementation of ObjectFetcher for testing.
type mockFetcher struct {
	data   []byte
	err    error
	bucket string
	object string
}

func (m *mockFetcher) FetchObject(ctx context.Context, bucket, object string) ([]byte, error) {
	m.bucket, m.object = bucket, object
	return m.data, m.err
}

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://bank/exports/operations.xlsx", wantBucket: "bank", wantObject: "exports/operations.xlsx"},
		{uri: "gs://bank/operations.csv", wantBucket: "bank", wantObject: "operations.csv"},
		{uri: "gs://bank", wantErr: true},
		{uri: "gs://bank/", wantErr: true},
		{uri: "s3://bank/operations.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGCSURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseGCSURI() = %q, %q; want %q, %q", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	tests := map[string]string{
		"gs://bank/exports/2021/operations.xlsx": "operations.xlsx",
		"gs://bank/operations.csv":               "operations.csv",
		"gs://bank":                              "bank",
	}
	for uri, want := range tests {
		if got := ExtractFilenameFromGCSURI(uri); got != want {
			t.Errorf("ExtractFilenameFromGCSURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestGCSSource_Load(t *testing.T) {
	fetcher := &mockFetcher{data: []byte(
		"Дата операции,Сумма операции,Категория\n" +
			"31.12.2021 16:44:00,-160.89,Супермаркеты\n",
	)}
	src := &GCSSource{URI: "gs://bank/exports/operations.csv", Fetcher: fetcher}

	txs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if fetcher.bucket != "bank" || fetcher.object != "exports/operations.csv" {
		t.Errorf("fetched %s/%s", fetcher.bucket, fetcher.object)
	}
	if len(txs) != 1 || txs[0].Category != "Супермаркеты" {
		t.Errorf("Load() = %+v", txs)
	}
}

func TestGCSSource_FetchError(t *testing.T) {
	src := &GCSSource{URI: "gs://bank/operations.xlsx", Fetcher: &mockFetcher{err: errors.New("permission denied")}}

	_, err := src.Load(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"exports/operations.xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"operations.CSV":          "text/csv",
		"operations.pdf":          "application/octet-stream",
	}
	for name, want := range tests {
		if got := contentTypeFor(name); got != want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
