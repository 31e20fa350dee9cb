package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// IDは外部IDプロバイダのsubject。パスワードは持たない
type User struct {
	ID        string    `gorm:"type:varchar(128);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
