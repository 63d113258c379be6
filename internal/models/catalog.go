package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        uint      `gorm:"primaryKey"                           json:"id"`
	Name      string    `gorm:"size:128;not null"                    json:"name"`
	ParentID  *uint     `gorm:"index"                                json:"parent_id,omitempty"`
	Lifecycle Lifecycle `gorm:"size:16;not null;default:'active'"    json:"lifecycle"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey"                         json:"id"`
	Name        string          `gorm:"size:255;not null"                  json:"name"`
	Description string          `gorm:"type:text"                          json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"        json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	CategoryID  *uint           `gorm:"index"                              json:"category_id,omitempty"`
	Featured    bool            `gorm:"not null;default:false"             json:"featured"`
	Lifecycle   Lifecycle       `gorm:"size:16;not null;default:'active';index" json:"lifecycle"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p Product) InStock(qty int) bool {
	return qty > 0 && qty <= p.Quantity
}
