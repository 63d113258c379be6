package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User rows are owned by the auth service; the storefront only reads them.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"size:128"                      json:"first_name"`
	Role      string    `gorm:"size:16;not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
)

func (t AddressType) Valid() bool {
	return t == AddressBilling || t == AddressShipping
}

type Address struct {
	ID        uint        `gorm:"primaryKey"                        json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;index;not null"          json:"user_id"`
	Type      AddressType `gorm:"size:16;not null"                  json:"type"`
	Line      string      `gorm:"size:255;not null"                 json:"address"`
	City      string      `gorm:"size:128;not null"                 json:"city"`
	District  string      `gorm:"size:128"                          json:"district"`
	Country   string      `gorm:"size:128;not null"                 json:"country"`
	Postcode  string      `gorm:"size:32;not null"                  json:"postcode"`
	Primary   bool        `gorm:"column:is_primary;not null;default:false" json:"primary"`
	Lifecycle Lifecycle   `gorm:"size:16;not null;default:'active'" json:"lifecycle"`
	CreatedAt time.Time   `json:"created_at"`
}

// Snapshot is the denormalized text copied onto orders.
func (a Address) Snapshot() string {
	return strings.Join([]string{a.Line, a.City, a.Country, a.Postcode}, ", ")
}
