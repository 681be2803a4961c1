package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade type and status values.
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"

	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// Trade represents a simulated position. A trade is created open with the
// entry price frozen at creation time; LatestPrice and ExitDate stay null
// until the trade is exited, after which the record is terminal.
type Trade struct {
	gorm.Model
	UserID      uint                `gorm:"index;not null" json:"user_id"`
	Symbol      string              `gorm:"not null" json:"symbol"`
	Type        string              `gorm:"not null" json:"type"` // "buy" or "sell"
	Qty         int64               `gorm:"not null" json:"qty"`
	EntryPrice  decimal.Decimal     `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	LatestPrice decimal.NullDecimal `gorm:"type:decimal(20,8)" json:"latest_price"`
	Status      string              `gorm:"not null;default:open" json:"status"`
	ExitDate    *time.Time          `json:"exit_date"`
}

// IsOpen reports whether the trade has not been exited yet.
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// PnL returns the profit or loss of the trade against the given price:
// (price - entry) * qty for a buy, negated for a sell.
func (t *Trade) PnL(price decimal.Decimal) decimal.Decimal {
	pnl := price.Sub(t.EntryPrice).Mul(decimal.NewFromInt(t.Qty))
	if t.Type == TradeTypeSell {
		return pnl.Neg()
	}
	return pnl
}

// RealizedPnL returns the P&L frozen at exit time. It is only meaningful
// for closed trades; an open trade has no exit price and yields zero.
func (t *Trade) RealizedPnL() decimal.Decimal {
	if !t.LatestPrice.Valid {
		return decimal.Zero
	}
	return t.PnL(t.LatestPrice.Decimal)
}
