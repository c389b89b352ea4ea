package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// TotalAmountは作成トランザクション内で明細から計算する。以降は不変。
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName    string          `gorm:"type:varchar(255);not null" json:"full_name"`
	Email       string          `gorm:"type:varchar(255);not null" json:"email"`
	Address     string          `gorm:"type:varchar(500);not null" json:"address"`
	UserID      *int64          `gorm:"index" json:"user_id,omitempty"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_amount"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
