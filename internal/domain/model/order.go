package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodPayPal     PaymentMethod = "paypal"
	PaymentMethodStripe     PaymentMethod = "stripe"
)

const DefaultCountry = "United States"

// 注文に埋め込む配送先
type ShippingAddress struct {
	FullName    string `gorm:"type:varchar(255);not null" json:"fullName"`
	PhoneNumber string `gorm:"type:varchar(30);not null" json:"phoneNumber"`
	Address     string `gorm:"type:varchar(500);not null" json:"address"`
	City        string `gorm:"type:varchar(255);not null" json:"city"`
	State       string `gorm:"type:varchar(255);not null" json:"state"`
	Pincode     string `gorm:"type:varchar(20);not null" json:"pincode"`
	Country     string `gorm:"type:varchar(100);not null" json:"country"`
}

// 注文は削除しない。金額は確定時の値を保存する
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"orderNumber"`
	UserID          string          `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_orders_user_idem" json:"userId"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"paymentStatus"`
	OrderStatus     OrderStatus     `gorm:"type:varchar(20);not null;index" json:"orderStatus"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shippingCost"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"tax"`
	Total           decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"total"`
	TrackingNumber  *string         `gorm:"type:varchar(255)" json:"trackingNumber"`
	Notes           string          `gorm:"type:text" json:"notes"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionは厳格モードの遷移表。delivered/cancelledは終端
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
