package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/logger"
)

const gcsScheme = "gs://"

// ObjectFetcher downloads object bytes from cloud storage.
// This interface enables mocking of the storage client in tests.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// StorageFetcher is the ObjectFetcher backed by Google Cloud Storage.
// It assumes Application Default Credentials are configured.
type StorageFetcher struct{}

// FetchObject downloads the whole object.
func (StorageFetcher) FetchObject(ctx context.Context, bucket, object string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchObject: reading bytes: %w", err)
	}
	return data, nil
}

// UploadFile uploads a local export to a bucket under the given object name,
// so servers can read it back through a gs:// source.
func UploadFile(ctx context.Context, bucket, object, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("UploadFile: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentTypeFor(object)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadFile: copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadFile: finalize upload: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("uri", gcsScheme+bucket+"/"+object).
		Msg("Export uploaded")
	return nil
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// GCSSource reads an .xlsx or .csv export stored in a bucket,
// e.g. gs://my-bucket/exports/operations.xlsx.
type GCSSource struct {
	URI     string
	Fetcher ObjectFetcher
}

// Load downloads the object and decodes it by its extension.
func (s *GCSSource) Load(ctx context.Context) ([]domain.Transaction, error) {
	bucket, object, err := ParseGCSURI(s.URI)
	if err != nil {
		return nil, fmt.Errorf("GCSSource.Load: %w", err)
	}

	fetcher := s.Fetcher
	if fetcher == nil {
		fetcher = StorageFetcher{}
	}

	data, err := fetcher.FetchObject(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("GCSSource.Load: %w: %w", domain.ErrSourceUnavailable, err)
	}

	txs, err := decodeFile(ctx, ExtractFilenameFromGCSURI(s.URI), data)
	if err != nil {
		return nil, fmt.Errorf("GCSSource.Load: %w", err)
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("uri", s.URI).
		Int("bytes", len(data)).
		Int("transactions", len(txs)).
		Msg("Transactions loaded")
	return txs, nil
}

// ParseGCSURI splits gs://bucket/path/to/file into bucket and object path.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, gcsScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.xlsx" → "file.xlsx"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, gcsScheme)

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}
