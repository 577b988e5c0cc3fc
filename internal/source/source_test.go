package source

import (
	"context"
	"errors"
	"testing"
)

func TestOpen(t *testing.T) {
	opts := Options{GCPProject: "proj", SheetsCredentialsFile: "key.json"}

	tests := []struct {
		uri     string
		check   func(t *testing.T, s Source)
		wantErr bool
	}{
		{
			uri: "data/operations.xlsx",
			check: func(t *testing.T, s Source) {
				if fs, ok := s.(*FileSource); !ok || fs.Path != "data/operations.xlsx" {
					t.Errorf("got %#v, want FileSource", s)
				}
			},
		},
		{
			uri: "gs://bank/operations.xlsx",
			check: func(t *testing.T, s Source) {
				if _, ok := s.(*GCSSource); !ok {
					t.Errorf("got %#v, want GCSSource", s)
				}
			},
		},
		{
			uri: "bq://finance.operations",
			check: func(t *testing.T, s Source) {
				if bq, ok := s.(*BigQuerySource); !ok || bq.Project != "proj" {
					t.Errorf("got %#v, want BigQuerySource in proj", s)
				}
			},
		},
		{
			uri: "sheets://1AbC/Operations",
			check: func(t *testing.T, s Source) {
				if sh, ok := s.(*SheetsSource); !ok || sh.CredentialsFile != "key.json" {
					t.Errorf("got %#v, want SheetsSource with credentials", s)
				}
			},
		},
		{uri: "gs://bank", wantErr: true},
		{uri: "bq://table", wantErr: true},
		{uri: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			s, err := Open(tt.uri, opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestOpen_Empty(t *testing.T) {
	if _, err := Open("", Options{}); !errors.Is(err, ErrNoSource) {
		t.Errorf("error = %v, want ErrNoSource", err)
	}
}

func TestStatic(t *testing.T) {
	want := Static{{Category: "Фастфуд"}}
	got, err := want.Load(context.Background())
	if err != nil || len(got) != 1 || got[0].Category != "Фастфуд" {
		t.Errorf("Load() = %v, %v", got, err)
	}
}
