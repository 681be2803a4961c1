package models

import "gorm.io/gorm"

// Watchlist is a user-curated named set of stock symbols. The stock set may
// be empty; the name is required.
type Watchlist struct {
	gorm.Model
	UserID      uint    `gorm:"index;not null" json:"user_id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Stocks      []Stock `gorm:"many2many:watchlist_stocks" json:"stocks"`
}

// Stock is a catalog entry for a tradable symbol. Rows are created lazily
// the first time a symbol is added to any watchlist.
type Stock struct {
	gorm.Model
	Symbol string `gorm:"uniqueIndex;not null" json:"symbol"`
	Name   string `json:"name"`
}
