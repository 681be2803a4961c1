package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"stocksim/internal/models"
	"stocksim/internal/quotes"
)

// Service errors surfaced to the HTTP layer.
var (
	ErrNameRequired = errors.New("watchlist name is required")
	ErrNotFound     = errors.New("watchlist not found")
	ErrStockNotIn   = errors.New("symbol is not in the watchlist")
)

// Service owns watchlist CRUD and the stock associations. All lookups are
// scoped by owner so one user can never see or mutate another's lists.
type Service struct {
	db     *gorm.DB
	source quotes.Source
	logger *zap.Logger
}

// NewService creates a new watchlist service.
func NewService(db *gorm.DB, source quotes.Source, logger *zap.Logger) *Service {
	return &Service{db: db, source: source, logger: logger}
}

// Create persists a new watchlist for the user. An empty stock set is valid.
func (s *Service) Create(ctx context.Context, userID uint, name, description string) (*models.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	wl := models.Watchlist{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&wl).Error; err != nil {
		return nil, fmt.Errorf("failed to create watchlist: %w", err)
	}

	s.logger.Info("Created watchlist",
		zap.Uint("watchlist_id", wl.ID),
		zap.Uint("user_id", userID),
		zap.String("name", name))
	return &wl, nil
}

// Get returns the user's watchlist with its stocks materialized.
func (s *Service) Get(ctx context.Context, userID, id uint) (*models.Watchlist, error) {
	var wl models.Watchlist
	err := s.db.WithContext(ctx).
		Preload("Stocks").
		Where("user_id = ?", userID).
		First(&wl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	return &wl, nil
}

// List returns all of the user's watchlists with stocks materialized.
func (s *Service) List(ctx context.Context, userID uint) ([]models.Watchlist, error) {
	var lists []models.Watchlist
	err := s.db.WithContext(ctx).
		Preload("Stocks").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	return lists, nil
}

// Remove hard-deletes the watchlist and its stock associations. The join
// rows are cleared in the same transaction so no orphans are left behind.
func (s *Service) Remove(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wl models.Watchlist
		if err := tx.Where("user_id = ?", userID).First(&wl, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load watchlist: %w", err)
		}

		if err := tx.Model(&wl).Association("Stocks").Clear(); err != nil {
			return fmt.Errorf("failed to clear stock associations: %w", err)
		}
		if err := tx.Unscoped().Delete(&wl).Error; err != nil {
			return fmt.Errorf("failed to delete watchlist: %w", err)
		}

		s.logger.Info("Removed watchlist",
			zap.Uint("watchlist_id", id),
			zap.Uint("user_id", userID))
		return nil
	})
}

// AddStock validates the symbol against the price source and associates it
// with the watchlist, creating the catalog row if this is the first time
// anyone watches the symbol. Adding a symbol twice is a no-op.
func (s *Service) AddStock(ctx context.Context, userID, id uint, symbol string) (*models.Stock, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, quotes.ErrUnknownSymbol
	}

	wl, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.source.LatestPrice(ctx, symbol); err != nil {
		if errors.Is(err, quotes.ErrUnknownSymbol) {
			return nil, quotes.ErrUnknownSymbol
		}
		return nil, fmt.Errorf("failed to validate %s: %w", symbol, err)
	}

	stock := models.Stock{Symbol: symbol}
	if err := s.db.WithContext(ctx).FirstOrCreate(&stock, models.Stock{Symbol: symbol}).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert stock %s: %w", symbol, err)
	}

	if err := s.db.WithContext(ctx).Model(wl).Association("Stocks").Append(&stock); err != nil {
		return nil, fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}
	return &stock, nil
}

// RemoveStock detaches the symbol from the watchlist. The catalog row stays;
// other watchlists may reference it.
func (s *Service) RemoveStock(ctx context.Context, userID, id uint, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	wl, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	for i := range wl.Stocks {
		if wl.Stocks[i].Symbol == symbol {
			if err := s.db.WithContext(ctx).Model(wl).Association("Stocks").Delete(&wl.Stocks[i]); err != nil {
				return fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
			}
			return nil
		}
	}
	return ErrStockNotIn
}

// Symbols returns the watchlist's symbols, for display and for pricing.
func (s *Service) Symbols(ctx context.Context, userID, id uint) ([]string, error) {
	wl, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(wl.Stocks))
	for _, st := range wl.Stocks {
		symbols = append(symbols, st.Symbol)
	}
	return symbols, nil
}
