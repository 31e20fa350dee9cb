package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	AuditActionUpdateStock   AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrder   AuditAction = "UPDATE_ORDER"
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ。「誰が」「何を」「どの対象に」「どう変えたか」を残す
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者
	ActorUserID string `gorm:"type:varchar(128);not null;index" json:"actorUserId"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`
	ResourceID   int64             `gorm:"not null;index" json:"resourceId"`

	//変更前後をJSON文字列で保存
	BeforeJSON string `gorm:"type:text" json:"before"`
	AfterJSON  string `gorm:"type:text" json:"after"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
