package quotes

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MockSource serves synthetic prices so the simulator can run without
// market data credentials. Each symbol gets a stable base price derived
// from its letters plus a slow sinusoidal drift, so open positions show
// a moving P&L between requests.
type MockSource struct {
	now func() time.Time
}

var _ Source = (*MockSource)(nil)

// NewMockSource creates a synthetic price source.
func NewMockSource() *MockSource {
	return &MockSource{now: time.Now}
}

// LatestPrice returns the synthetic price for a symbol.
func (m *MockSource) LatestPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	if !validMockSymbol(symbol) {
		return decimal.Zero, ErrUnknownSymbol
	}

	base := float64(20)
	for _, r := range symbol {
		base += float64(r-'A') * 7.3
	}

	// Drift +/-2% over a ten minute cycle.
	phase := float64(m.now().Unix()%600) / 600 * 2 * math.Pi
	price := base * (1 + 0.02*math.Sin(phase))

	return decimal.NewFromFloat(price).Round(2), nil
}

// LatestPrices returns synthetic prices for a batch of symbols, skipping
// any that are not valid tickers.
func (m *MockSource) LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		price, err := m.LatestPrice(ctx, symbol)
		if err != nil {
			continue
		}
		prices[symbol] = price
	}
	return prices, nil
}

// validMockSymbol accepts 1-5 uppercase letters, the usual US ticker shape.
func validMockSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 5 {
		return false
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
