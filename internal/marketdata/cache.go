package marketdata

import (
	"context"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/logger"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// CachedClient remembers quotes for a while so repeated home page requests
// in a long-running server do not burn the provider's rate limit.
type CachedClient struct {
	next   Client
	prefix string
	store  *gocache.Cache
}

// NewCachedClient wraps next with a TTL cache. prefix separates the key spaces
// of clients sharing a cache, e.g. "fx:" and "stock:". A ttl <= 0 disables
// caching: go-cache would otherwise treat 0 as "never expire".
func NewCachedClient(next Client, prefix string, ttl time.Duration) *CachedClient {
	c := &CachedClient{next: next, prefix: prefix}
	if ttl > 0 {
		c.store = gocache.New(ttl, 2*ttl)
	}
	return c
}

// Quotes serves cached symbols and asks the wrapped client for the rest.
// The result keeps the requested symbol order.
func (c *CachedClient) Quotes(ctx context.Context, symbols []string) ([]Quote, error) {
	if c.store == nil {
		return c.next.Quotes(ctx, symbols)
	}

	cached := make(map[string]decimal.Decimal, len(symbols))
	var missing []string
	for _, s := range symbols {
		if v, ok := c.store.Get(c.prefix + s); ok {
			cached[s] = v.(decimal.Decimal)
			continue
		}
		missing = append(missing, s)
	}

	if len(missing) > 0 {
		fetched, err := c.next.Quotes(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, q := range fetched {
			c.store.SetDefault(c.prefix+q.Symbol, q.Value)
			cached[q.Symbol] = q.Value
		}
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("requested", len(symbols)).
		Int("fetched", len(missing)).
		Msg("Quotes resolved")

	quotes := make([]Quote, 0, len(symbols))
	for _, s := range symbols {
		if v, ok := cached[s]; ok {
			quotes = append(quotes, Quote{Symbol: s, Value: v})
		}
	}
	return quotes, nil
}
