package models

import (
	"fmt"
	"strings"
)

// OrderStatus values are ranks: an order may only move to an equal or higher rank.
type OrderStatus int

const (
	StatusNotPacked        OrderStatus = 1
	StatusReadyForShipment OrderStatus = 2
	StatusShipped          OrderStatus = 3
	StatusDelivered        OrderStatus = 4
)

var orderStatusLabels = map[OrderStatus]string{
	StatusNotPacked:        "Not Packed",
	StatusReadyForShipment: "Ready For Shipment",
	StatusShipped:          "Shipped",
	StatusDelivered:        "Delivered",
}

func (s OrderStatus) String() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("OrderStatus(%d)", int(s))
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return next.Valid() && next >= s
}

type PaymentStatus int

const (
	PaymentSuccess        PaymentStatus = 1
	PaymentFailure        PaymentStatus = 2
	PaymentPending        PaymentStatus = 3
	PaymentRefunded       PaymentStatus = 4
	PaymentDisputed       PaymentStatus = 5
	PaymentCashOnDelivery PaymentStatus = 6
)

var paymentStatusLabels = map[PaymentStatus]string{
	PaymentSuccess:        "SUCCESS",
	PaymentFailure:        "FAILURE",
	PaymentPending:        "PENDING",
	PaymentRefunded:       "REFUNDED",
	PaymentDisputed:       "DISPUTED",
	PaymentCashOnDelivery: "CASH ON DELIVERY",
}

func (s PaymentStatus) String() string {
	if l, ok := paymentStatusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("PaymentStatus(%d)", int(s))
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatusLabels[s]
	return ok
}

type ShippingMethod int

const (
	ShippingStandard  ShippingMethod = 1
	ShippingExpress   ShippingMethod = 2
	ShippingOvernight ShippingMethod = 3
	ShippingPickup    ShippingMethod = 4
)

var shippingLabels = map[ShippingMethod]string{
	ShippingStandard:  "Standard Shipping",
	ShippingExpress:   "Express Shipping",
	ShippingOvernight: "Overnight Shipping",
	ShippingPickup:    "Pickup",
}

func (m ShippingMethod) String() string {
	if l, ok := shippingLabels[m]; ok {
		return l
	}
	return fmt.Sprintf("ShippingMethod(%d)", int(m))
}

func (m ShippingMethod) Valid() bool {
	_, ok := shippingLabels[m]
	return ok
}

type PaymentMethod string

const (
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentMethodPayPal, PaymentMethodCashOnDelivery:
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}
