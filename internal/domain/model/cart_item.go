package model

import "time"

// ユーザーごとの 商品ID -> 数量。数量0以下は保存せず削除する
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_cart_user_product" json:"userId"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"productId"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
