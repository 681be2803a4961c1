package quotes

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Source provides the latest traded price for stock symbols. Implementations
// must be safe for concurrent use.
type Source interface {
	// LatestPrice returns the most recent price for a single symbol.
	// Unknown symbols yield ErrUnknownSymbol.
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	// LatestPrices returns prices for a batch of symbols. Symbols the
	// source does not know are omitted from the result.
	LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// ErrUnknownSymbol is returned when the price source has no data for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")
