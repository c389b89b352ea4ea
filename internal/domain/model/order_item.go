package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 商品名・画像・単価は注文時点のスナップショット。後の商品変更の影響を受けない。
type OrderItem struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         int64           `gorm:"not null;index" json:"order_id"`
	ProductID       int64           `gorm:"not null;index" json:"product_id"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductImageURL string          `gorm:"type:varchar(500)" json:"product_image_url"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unit_price"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
