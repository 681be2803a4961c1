package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a registered account holder.
type User struct {
	gorm.Model
	Username       string          `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string          `gorm:"not null" json:"-"`
	AccountBalance decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"account_balance"`
}
