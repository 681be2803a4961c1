package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTradePnL(t *testing.T) {
	testCases := []struct {
		name     string
		trade    Trade
		price    decimal.Decimal
		expected string
	}{
		{
			name:     "Buy in profit",
			trade:    Trade{Type: TradeTypeBuy, Qty: 10, EntryPrice: decimal.NewFromInt(100)},
			price:    decimal.NewFromInt(120),
			expected: "200",
		},
		{
			name:     "Sell is the negation",
			trade:    Trade{Type: TradeTypeSell, Qty: 10, EntryPrice: decimal.NewFromInt(100)},
			price:    decimal.NewFromInt(120),
			expected: "-200",
		},
		{
			name:     "Buy in loss",
			trade:    Trade{Type: TradeTypeBuy, Qty: 4, EntryPrice: decimal.NewFromInt(50)},
			price:    decimal.NewFromInt(30),
			expected: "-80",
		},
		{
			name:     "Flat price is zero",
			trade:    Trade{Type: TradeTypeBuy, Qty: 7, EntryPrice: decimal.NewFromInt(42)},
			price:    decimal.NewFromInt(42),
			expected: "0",
		},
		{
			name:     "Fractional prices stay exact",
			trade:    Trade{Type: TradeTypeBuy, Qty: 3, EntryPrice: decimal.RequireFromString("10.10")},
			price:    decimal.RequireFromString("10.25"),
			expected: "0.45",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pnl := tc.trade.PnL(tc.price)
			assert.True(t, pnl.Equal(decimal.RequireFromString(tc.expected)),
				"expected %s, got %s", tc.expected, pnl)
		})
	}
}

func TestTradeRealizedPnL(t *testing.T) {
	trade := Trade{
		Type:       TradeTypeBuy,
		Qty:        10,
		EntryPrice: decimal.NewFromInt(100),
		Status:     TradeStatusOpen,
	}

	// Open trade has no exit price, so nothing is realized.
	assert.True(t, trade.RealizedPnL().IsZero())

	trade.LatestPrice = decimal.NullDecimal{Decimal: decimal.NewFromInt(120), Valid: true}
	trade.Status = TradeStatusClosed
	assert.True(t, trade.RealizedPnL().Equal(decimal.NewFromInt(200)))
}

func TestTradeIsOpen(t *testing.T) {
	trade := Trade{Status: TradeStatusOpen}
	assert.True(t, trade.IsOpen())

	trade.Status = TradeStatusClosed
	assert.False(t, trade.IsOpen())
}
