package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 名前と単価は注文時点のスナップショット
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"orderId"`
	ProductID           int64           `gorm:"not null;index" json:"productId"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPriceSnapshot   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
}
