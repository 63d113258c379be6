package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem is a product a user saved for later. Removal only flips the
// lifecycle so the same row is reused when the product is saved again.
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	Product   Product   `json:"product"`
	Lifecycle Lifecycle `gorm:"size:16;not null;default:'active';index"      json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review holds one user's rating and comment for a product; resubmitting
// replaces it.
type Review struct {
	ID        uint      `gorm:"primaryKey"                                         json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_user_product;index" json:"product_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"        json:"rating"`
	Message   string    `gorm:"type:text"                                          json:"message"`
	Lifecycle Lifecycle `gorm:"size:16;not null;default:'active'"                  json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ContactMessage struct {
	ID         uint       `gorm:"primaryKey"        json:"id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Email      string     `gorm:"size:255;not null" json:"email"`
	Phone      string     `gorm:"size:17"           json:"phone,omitempty"`
	Subject    string     `gorm:"size:255;not null" json:"subject"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	AdminReply *string    `gorm:"type:text"         json:"admin_reply,omitempty"`
	RepliedAt  *time.Time `gorm:"index"             json:"replied_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (m ContactMessage) Replied() bool {
	return m.RepliedAt != nil
}
