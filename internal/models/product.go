package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a stock line owned by a single shopkeeper.
type Product struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string          `json:"name" gorm:"type:varchar(255);not null;index:idx_products_owner_name"`
	Description  string          `json:"description,omitempty" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity     int             `json:"quantity" gorm:"not null;default:0"` // on-hand stock, never negative
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	Category     string          `json:"category,omitempty" gorm:"type:varchar(100)"`
	ShopkeeperID string          `json:"shopkeeperId" gorm:"type:varchar(36);not null;index:idx_products_owner_name"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	Shopkeeper *ShopSummary `json:"shopkeeper,omitempty" gorm:"foreignKey:ShopkeeperID"`

	// AvailableQuantity is derived at read time and never stored.
	AvailableQuantity *int `json:"availableQuantity,omitempty" gorm:"-"`
}

// ProductFilter narrows product listings. Zero values mean "no constraint".
type ProductFilter struct {
	ShopkeeperID string
	Query        string     // case-insensitive match on name, description or category
	ExpiresFrom  *time.Time // inclusive
	ExpiresUntil *time.Time // inclusive
	InStockOnly  bool
}
