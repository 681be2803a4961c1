package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// countingSource records how often the upstream is hit.
type countingSource struct {
	singleCalls int
	batchCalls  [][]string
	prices      map[string]decimal.Decimal
}

func (c *countingSource) LatestPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	c.singleCalls++
	price, ok := c.prices[symbol]
	if !ok {
		return decimal.Zero, ErrUnknownSymbol
	}
	return price, nil
}

func (c *countingSource) LatestPrices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	c.batchCalls = append(c.batchCalls, symbols)
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		if price, ok := c.prices[s]; ok {
			out[s] = price
		}
	}
	return out, nil
}

func TestCachedSource_SingleHit(t *testing.T) {
	upstream := &countingSource{prices: map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("187.32"),
	}}
	cached, err := NewCachedSource(upstream, time.Minute)
	assert.NoError(t, err)

	price, err := cached.LatestPrice(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("187.32")))
	cached.Wait()

	// Second read is served from the cache.
	price, err = cached.LatestPrice(context.Background(), "AAPL")
	assert.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("187.32")))
	assert.Equal(t, 1, upstream.singleCalls)
}

func TestCachedSource_ErrorNotCached(t *testing.T) {
	upstream := &countingSource{prices: map[string]decimal.Decimal{}}
	cached, err := NewCachedSource(upstream, time.Minute)
	assert.NoError(t, err)

	_, err = cached.LatestPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = cached.LatestPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Equal(t, 2, upstream.singleCalls)
}

func TestCachedSource_BatchFetchesOnlyMisses(t *testing.T) {
	upstream := &countingSource{prices: map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("187.32"),
		"MSFT": decimal.RequireFromString("410.5"),
	}}
	cached, err := NewCachedSource(upstream, time.Minute)
	assert.NoError(t, err)

	// Prime AAPL.
	_, err = cached.LatestPrice(context.Background(), "AAPL")
	assert.NoError(t, err)
	cached.Wait()

	prices, err := cached.LatestPrices(context.Background(), []string{"AAPL", "MSFT"})
	assert.NoError(t, err)
	assert.Len(t, prices, 2)

	// Only the miss went upstream.
	assert.Len(t, upstream.batchCalls, 1)
	assert.Equal(t, []string{"MSFT"}, upstream.batchCalls[0])
}
