package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stocksim/internal/models"
	"stocksim/internal/quotes"
)

// Validation and lifecycle errors surfaced to the HTTP layer.
var (
	ErrInvalidQty    = errors.New("quantity must be a positive integer")
	ErrInvalidType   = errors.New("trade type must be buy or sell")
	ErrUserNotFound  = errors.New("user not found")
	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeClosed   = errors.New("trade is already closed")
)

// Service owns the trade lifecycle: entering a position, pricing it, and
// exiting it with the owner's balance settled in the same transaction.
type Service struct {
	db     *gorm.DB
	source quotes.Source
	logger *zap.Logger
}

// NewService creates a new trade lifecycle service.
func NewService(db *gorm.DB, source quotes.Source, logger *zap.Logger) *Service {
	return &Service{db: db, source: source, logger: logger}
}

// Enter validates the request, prices the symbol, and persists a new open
// trade for the user. The entry price is the quote at call time.
func (s *Service) Enter(ctx context.Context, userID uint, symbol, tradeType string, qty int64) (*models.Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	tradeType = strings.ToLower(strings.TrimSpace(tradeType))

	if qty <= 0 {
		return nil, ErrInvalidQty
	}
	if tradeType != models.TradeTypeBuy && tradeType != models.TradeTypeSell {
		return nil, ErrInvalidType
	}
	if symbol == "" {
		return nil, quotes.ErrUnknownSymbol
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Pricing the symbol doubles as symbol validation.
	price, err := s.source.LatestPrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrUnknownSymbol) {
			return nil, quotes.ErrUnknownSymbol
		}
		return nil, fmt.Errorf("failed to price %s: %w", symbol, err)
	}

	trade := models.Trade{
		UserID:     userID,
		Symbol:     symbol,
		Type:       tradeType,
		Qty:        qty,
		EntryPrice: price,
		Status:     models.TradeStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(&trade).Error; err != nil {
		return nil, fmt.Errorf("failed to persist trade: %w", err)
	}

	s.logger.Info("Entered trade",
		zap.Uint("trade_id", trade.ID),
		zap.Uint("user_id", userID),
		zap.String("symbol", symbol),
		zap.String("type", tradeType),
		zap.Int64("qty", qty),
		zap.String("entry_price", price.String()),
	)
	return &trade, nil
}

// ExitResult reports the outcome of closing a trade.
type ExitResult struct {
	Trade          models.Trade
	PnL            decimal.Decimal
	AccountBalance decimal.Decimal
}

// Exit closes an open trade at the current quote and settles the owner's
// account balance. Closing and settlement run in a single database
// transaction so a concurrent exit cannot produce a lost update. Lookups
// are scoped to the owner; another user's trade id reads as not found. The
// balance is floored at exactly zero: a loss larger than the balance is
// absorbed rather than driving the account negative, and a loss that lands
// exactly on zero takes the same branch.
func (s *Service) Exit(ctx context.Context, userID, tradeID uint) (*ExitResult, error) {
	var trade models.Trade
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&trade, tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	if !trade.IsOpen() {
		return nil, ErrTradeClosed
	}

	price, err := s.source.LatestPrice(ctx, trade.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to price %s: %w", trade.Symbol, err)
	}

	var result ExitResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read inside the transaction; the status may have flipped
		// since the check above.
		if err := tx.First(&trade, tradeID).Error; err != nil {
			return fmt.Errorf("failed to re-load trade: %w", err)
		}
		if !trade.IsOpen() {
			return ErrTradeClosed
		}

		now := time.Now()
		trade.LatestPrice = decimal.NullDecimal{Decimal: price, Valid: true}
		trade.ExitDate = &now
		trade.Status = models.TradeStatusClosed
		if err := tx.Save(&trade).Error; err != nil {
			return fmt.Errorf("failed to close trade: %w", err)
		}

		var user models.User
		if err := tx.First(&user, trade.UserID).Error; err != nil {
			return fmt.Errorf("failed to load trade owner: %w", err)
		}

		pnl := trade.PnL(price)
		balance := user.AccountBalance.Add(pnl)
		if balance.LessThanOrEqual(decimal.Zero) {
			balance = decimal.Zero
		}
		if err := tx.Model(&user).Update("account_balance", balance).Error; err != nil {
			return fmt.Errorf("failed to settle balance: %w", err)
		}

		result = ExitResult{Trade: trade, PnL: pnl, AccountBalance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exited trade",
		zap.Uint("trade_id", result.Trade.ID),
		zap.String("symbol", result.Trade.Symbol),
		zap.String("exit_price", price.String()),
		zap.String("pnl", result.PnL.String()),
		zap.String("account_balance", result.AccountBalance.String()),
	)
	return &result, nil
}

// Position is an open trade priced against the latest quote.
type Position struct {
	Trade        models.Trade
	CurrentPrice decimal.NullDecimal
	PnL          decimal.Decimal
}

// OpenPositions returns the user's open trades with unrealized P&L from a
// single batch quote call. Positions whose symbol cannot be priced right
// now are returned without a current price.
func (s *Service) OpenPositions(ctx context.Context, userID uint) ([]Position, error) {
	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TradeStatusOpen).
		Order("created_at desc").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load open trades: %w", err)
	}
	if len(trades) == 0 {
		return []Position{}, nil
	}

	seen := make(map[string]struct{}, len(trades))
	symbols := make([]string, 0, len(trades))
	for _, t := range trades {
		if _, ok := seen[t.Symbol]; !ok {
			seen[t.Symbol] = struct{}{}
			symbols = append(symbols, t.Symbol)
		}
	}

	prices, err := s.source.LatestPrices(ctx, symbols)
	if err != nil {
		s.logger.Warn("Failed to price open positions", zap.Error(err))
		prices = map[string]decimal.Decimal{}
	}

	positions := make([]Position, 0, len(trades))
	for _, t := range trades {
		p := Position{Trade: t}
		if price, ok := prices[t.Symbol]; ok {
			p.CurrentPrice = decimal.NullDecimal{Decimal: price, Valid: true}
			p.PnL = t.PnL(price)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

// History returns all of the user's trades, most recent first.
func (s *Service) History(ctx context.Context, userID uint) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	return trades, nil
}
