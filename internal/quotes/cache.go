package quotes

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/shopspring/decimal"
)

// CachedSource wraps a Source with a short-TTL price cache so a burst of
// requests (an open-positions page, a watchlist stream tick) does not hammer
// the upstream API with one call per symbol.
type CachedSource struct {
	source Source
	cache  *ristretto.Cache
	ttl    time.Duration
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps source with a TTL cache.
func NewCachedSource(source Source, ttl time.Duration) (*CachedSource, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000, // ~1k distinct symbols expected
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}, nil
}

// LatestPrice returns the cached price for symbol, fetching on a miss.
func (s *CachedSource) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if v, ok := s.cache.Get(symbol); ok {
		return v.(decimal.Decimal), nil
	}

	price, err := s.source.LatestPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	s.cache.SetWithTTL(symbol, price, 1, s.ttl)
	return price, nil
}

// LatestPrices serves what it can from the cache and fetches the rest in
// one upstream batch call.
func (s *CachedSource) LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	var missing []string

	for _, symbol := range symbols {
		if v, ok := s.cache.Get(symbol); ok {
			prices[symbol] = v.(decimal.Decimal)
		} else {
			missing = append(missing, symbol)
		}
	}

	if len(missing) > 0 {
		fetched, err := s.source.LatestPrices(ctx, missing)
		if err != nil {
			return nil, err
		}
		for symbol, price := range fetched {
			prices[symbol] = price
			s.cache.SetWithTTL(symbol, price, 1, s.ttl)
		}
	}

	return prices, nil
}

// Wait blocks until pending cache writes are applied. Only used by tests.
func (s *CachedSource) Wait() {
	s.cache.Wait()
}
