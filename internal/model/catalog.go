package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Brand is a secondary lookup table joined into catalog listings
type Brand struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultBrandLabel is shown when a catalog item has no brand assigned
const DefaultBrandLabel = "GENERICO"

// CatalogItem represents one withdrawable article in the warehouse catalog.
// AvailableQuantity is the authoritative stock figure; clients cache it as a
// ceiling at selection time and the server re-checks it at commit.
type CatalogItem struct {
	Code              string          `gorm:"type:varchar(50);primaryKey" json:"code"`
	Name              string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Unit              string          `gorm:"type:varchar(30);not null" json:"unit"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"available_quantity"`
	BrandID           *int            `gorm:"index" json:"brand_id"`
	Brand             *Brand          `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	ImageURL          *string         `gorm:"type:text" json:"image_url"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BrandLabel resolves the display brand, falling back to the default label
func (c *CatalogItem) BrandLabel() string {
	if c.Brand != nil && c.Brand.Name != "" {
		return c.Brand.Name
	}
	return DefaultBrandLabel
}
