package transport

import "github.com/pay2me/storefront/internal/models"

type QuantityRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

type CheckoutRequest struct {
	CouponCode        string                `json:"coupon_code"         form:"coupon_code"`
	BillingAddressID  uint                  `json:"billing_address_id"  form:"billing_address_id"`
	ShippingAddressID uint                  `json:"shipping_address_id" form:"shipping_address_id"`
	ShippingMethod    models.ShippingMethod `json:"shipping_method"     form:"shipping_method"`
	PaymentMethod     string                `json:"payment_method"      form:"payment_method"`
}

type CouponRequest struct {
	Code string `json:"code" form:"code"`
}

type TrackRequest struct {
	OrderID string `json:"order_id" form:"order_id"`
	Email   string `json:"email"    form:"email"`
}

type ReplyRequest struct {
	Reply string `json:"reply" form:"reply"`
}
