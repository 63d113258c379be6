package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pay2me/storefront/internal/models"
)

// PendingLine freezes the price a shopper agreed to before leaving for the
// payment gateway.
type PendingLine struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Pending is everything needed to create the order once the gateway confirms
// payment. It lives in the session store and expires with the session.
type Pending struct {
	PaymentID       string                `json:"payment_id"`
	UserID          uuid.UUID             `json:"user_id"`
	Total           decimal.Decimal       `json:"total"`
	Discount        decimal.Decimal       `json:"discount"`
	CouponID        *uint                 `json:"coupon_id,omitempty"`
	BillingAddress  string                `json:"billing_address"`
	ShippingAddress string                `json:"shipping_address"`
	ShippingMethod  models.ShippingMethod `json:"shipping_method"`
	Lines           []PendingLine         `json:"lines"`
}
