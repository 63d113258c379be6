package models

// All lists every table owned by the storefront, in migration order.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&Category{},
		&Product{},
		&Coupon{},
		&Order{},
		&OrderLine{},
		&WebhookEvent{},
		&WishlistItem{},
		&Review{},
		&ContactMessage{},
	}
}
