package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// fakeClient serves fixed quotes and records what it was asked for.
type fakeClient struct {
	values map[string]string
	err    error
	asked  [][]string
}

func (f *fakeClient) Quotes(ctx context.Context, symbols []string) ([]Quote, error) {
	f.asked = append(f.asked, append([]string(nil), symbols...))
	if f.err != nil {
		return nil, f.err
	}
	var out []Quote
	for _, s := range symbols {
		if v, ok := f.values[s]; ok {
			out = append(out, Quote{Symbol: s, Value: decimal.RequireFromString(v)})
		}
	}
	return out, nil
}

func symbolsOf(quotes []Quote) []string {
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q.Symbol)
	}
	return out
}

func TestCachedClient_Quotes(t *testing.T) {
	fake := &fakeClient{values: map[string]string{"AAPL": "150.1", "MSFT": "300"}}
	client := NewCachedClient(fake, "stock:", time.Minute)
	ctx := context.Background()

	first, err := client.Quotes(ctx, []string{"AAPL", "NONE"})
	if err != nil {
		t.Fatalf("Quotes() error = %v", err)
	}
	if diff := cmp.Diff([]string{"AAPL"}, symbolsOf(first)); diff != "" {
		t.Errorf("first call symbols (-want +got):\n%s", diff)
	}

	second, err := client.Quotes(ctx, []string{"MSFT", "AAPL"})
	if err != nil {
		t.Fatalf("Quotes() error = %v", err)
	}
	if diff := cmp.Diff([]string{"MSFT", "AAPL"}, symbolsOf(second)); diff != "" {
		t.Errorf("second call symbols (-want +got):\n%s", diff)
	}

	wantAsked := [][]string{{"AAPL", "NONE"}, {"MSFT"}}
	if diff := cmp.Diff(wantAsked, fake.asked); diff != "" {
		t.Errorf("upstream requests (-want +got):\n%s", diff)
	}
}

func TestCachedClient_AllCached(t *testing.T) {
	fake := &fakeClient{values: map[string]string{"USD": "75.5"}}
	client := NewCachedClient(fake, "fx:", time.Minute)
	ctx := context.Background()

	if _, err := client.Quotes(ctx, []string{"USD"}); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Quotes(ctx, []string{"USD"}); err != nil {
		t.Fatal(err)
	}
	if len(fake.asked) != 1 {
		t.Errorf("upstream called %d times, want 1", len(fake.asked))
	}
}

func TestCachedClient_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	client := NewCachedClient(&fakeClient{err: boom}, "fx:", time.Minute)

	if _, err := client.Quotes(context.Background(), []string{"USD"}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestCachedClient_ZeroTTLDisablesCache(t *testing.T) {
	upstream := &fakeClient{values: map[string]string{"USD": "75.5"}}
	client := NewCachedClient(upstream, "fx:", 0)

	for i := 0; i < 2; i++ {
		quotes, err := client.Quotes(context.Background(), []string{"USD"})
		if err != nil {
			t.Fatalf("Quotes() error = %v", err)
		}
		if len(quotes) != 1 {
			t.Fatalf("Quotes() = %v", quotes)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if diff := cmp.Diff([][]string{{"USD"}, {"USD"}}, upstream.asked); diff != "" {
		t.Errorf("upstream calls mismatch (-want +got):\n%s", diff)
	}
}
