package model

import "time"

//在庫調整の履歴（Deltaは新在庫-旧在庫）

type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"productId"`
	AdminUserID string    `gorm:"type:varchar(128);not null;index" json:"adminUserId"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
