package watchlist

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stocksim/internal/models"
	"stocksim/internal/quotes"
)

// MockSource is a mock implementation of the quotes.Source interface.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) LatestPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockSource) LatestPrices(_ context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	args := m.Called(symbols)
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

func setupTest(t *testing.T) (*Service, *gorm.DB, *MockSource) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Stock{}, &models.Watchlist{})
	assert.NoError(t, err)

	mockSource := new(MockSource)
	svc := NewService(db, mockSource, zap.NewNop())

	return svc, db, mockSource
}

const testUserID = uint(1)

func TestCreate(t *testing.T) {
	svc, _, _ := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "big tech names")

	assert.NoError(t, err)
	assert.Equal(t, "Tech", wl.Name)
	assert.Equal(t, testUserID, wl.UserID)
	assert.Empty(t, wl.Stocks) // empty stock set is valid
}

func TestCreate_NameRequired(t *testing.T) {
	svc, _, _ := setupTest(t)

	_, err := svc.Create(context.Background(), testUserID, "   ", "no name")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestRemove_NotFound(t *testing.T) {
	svc, _, _ := setupTest(t)

	err := svc.Remove(context.Background(), testUserID, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove_OtherUsersList(t *testing.T) {
	svc, _, _ := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "")
	assert.NoError(t, err)

	err = svc.Remove(context.Background(), testUserID+1, wl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove_ClearsStockAssociations(t *testing.T) {
	svc, db, source := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "")
	assert.NoError(t, err)

	source.On("LatestPrice", "AAPL").Return(decimal.NewFromInt(180), nil)
	source.On("LatestPrice", "MSFT").Return(decimal.NewFromInt(410), nil)

	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "AAPL")
	assert.NoError(t, err)
	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "MSFT")
	assert.NoError(t, err)

	var joinRows int64
	db.Table("watchlist_stocks").Count(&joinRows)
	assert.Equal(t, int64(2), joinRows)

	assert.NoError(t, svc.Remove(context.Background(), testUserID, wl.ID))

	// Hard delete: the row is gone and no orphaned join rows remain.
	_, err = svc.Get(context.Background(), testUserID, wl.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	db.Table("watchlist_stocks").Count(&joinRows)
	assert.Equal(t, int64(0), joinRows)

	// The catalog rows survive for other watchlists.
	var stocks int64
	db.Model(&models.Stock{}).Count(&stocks)
	assert.Equal(t, int64(2), stocks)
}

func TestAddStock_UnknownSymbol(t *testing.T) {
	svc, _, source := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "")
	assert.NoError(t, err)

	source.On("LatestPrice", "NOPE").Return(decimal.Zero, quotes.ErrUnknownSymbol)

	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "nope")
	assert.ErrorIs(t, err, quotes.ErrUnknownSymbol)
}

func TestAddStock_Twice(t *testing.T) {
	svc, db, source := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "")
	assert.NoError(t, err)

	source.On("LatestPrice", "AAPL").Return(decimal.NewFromInt(180), nil)

	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "AAPL")
	assert.NoError(t, err)
	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "AAPL")
	assert.NoError(t, err)

	// Still one catalog row and one association.
	var stocks int64
	db.Model(&models.Stock{}).Count(&stocks)
	assert.Equal(t, int64(1), stocks)

	got, err := svc.Get(context.Background(), testUserID, wl.ID)
	assert.NoError(t, err)
	assert.Len(t, got.Stocks, 1)
}

func TestRemoveStock(t *testing.T) {
	svc, _, source := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "")
	assert.NoError(t, err)

	source.On("LatestPrice", "AAPL").Return(decimal.NewFromInt(180), nil)
	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "AAPL")
	assert.NoError(t, err)

	assert.NoError(t, svc.RemoveStock(context.Background(), testUserID, wl.ID, "AAPL"))

	got, err := svc.Get(context.Background(), testUserID, wl.ID)
	assert.NoError(t, err)
	assert.Empty(t, got.Stocks)

	// Removing again reports the symbol is not in the list.
	err = svc.RemoveStock(context.Background(), testUserID, wl.ID, "AAPL")
	assert.ErrorIs(t, err, ErrStockNotIn)
}

func TestSymbols(t *testing.T) {
	svc, _, source := setupTest(t)

	wl, err := svc.Create(context.Background(), testUserID, "Tech", "")
	assert.NoError(t, err)

	source.On("LatestPrice", "AAPL").Return(decimal.NewFromInt(180), nil)
	source.On("LatestPrice", "MSFT").Return(decimal.NewFromInt(410), nil)
	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "AAPL")
	assert.NoError(t, err)
	_, err = svc.AddStock(context.Background(), testUserID, wl.ID, "MSFT")
	assert.NoError(t, err)

	symbols, err := svc.Symbols(context.Background(), testUserID, wl.ID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols)
}
