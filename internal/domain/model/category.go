package model

import "time"

type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Image       string    `gorm:"type:varchar(500);not null" json:"image"`
	ParentID    *int64    `gorm:"index" json:"parentId"`
	IsActive    bool      `gorm:"not null" json:"isActive"`
	SortOrder   int       `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
