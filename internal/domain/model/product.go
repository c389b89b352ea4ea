package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  *int64          `gorm:"index" json:"category_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	ImageURL    string          `gorm:"type:varchar(500)" json:"image_url"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
