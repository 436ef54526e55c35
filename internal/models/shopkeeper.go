package models

import "time"

// Shopkeeper is the owner of a shop and the authenticated principal of the API.
type Shopkeeper struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	ShopName  string    `json:"shopName" gorm:"type:varchar(150);not null"`
	Address   string    `json:"address" gorm:"type:varchar(255);not null"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(30)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the public projection used when a shop is joined into another record.
func (s *Shopkeeper) Summary() *ShopSummary {
	if s == nil {
		return nil
	}
	return &ShopSummary{
		ID:       s.ID,
		Name:     s.Name,
		ShopName: s.ShopName,
		Address:  s.Address,
	}
}

// ShopSummary is the read-only public view of a shopkeeper: {id, name, shopName, address}.
type ShopSummary struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	ShopName string `json:"shopName"`
	Address  string `json:"address"`
}

// TableName maps the summary onto the shopkeepers table so it can be preloaded directly.
func (ShopSummary) TableName() string { return "shopkeepers" }
