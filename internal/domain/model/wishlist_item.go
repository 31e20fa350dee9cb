package model

import "time"

type WishlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_wishlist_user_product" json:"userId"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"productId"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
