package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID        uint            `gorm:"primaryKey"                        json:"id"`
	Code      string          `gorm:"size:64;uniqueIndex;not null"      json:"code"`
	Discount  decimal.Decimal `gorm:"type:decimal(10,2);not null"       json:"discount"`
	StartDate time.Time       `gorm:"not null"                          json:"start_date"`
	EndDate   time.Time       `gorm:"not null"                          json:"end_date"`
	Lifecycle Lifecycle       `gorm:"size:16;not null;default:'active'" json:"lifecycle"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ValidOn reports whether the coupon is active and day falls inside its
// inclusive date window. Only the calendar date of day is considered.
func (c Coupon) ValidOn(day time.Time) bool {
	if !c.Lifecycle.IsActive() {
		return false
	}
	d := DateOf(day)
	return !d.Before(DateOf(c.StartDate)) && !d.After(DateOf(c.EndDate))
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
