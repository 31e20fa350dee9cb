package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Priceは定価、OfferPriceが実際の販売価格
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	OfferPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;index" json:"offerPrice"`
	Stock       int64           `gorm:"not null;default:0" json:"stock"`
	CategoryID  *int64          `gorm:"index" json:"categoryId"`
	Image       string          `gorm:"type:varchar(500)" json:"image"`
	Featured    bool            `gorm:"not null;index" json:"featured"`
	IsActive    bool            `gorm:"not null;index" json:"isActive"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
