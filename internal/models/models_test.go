package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderID_Format(t *testing.T) {
	paid := time.Date(2024, time.March, 7, 23, 10, 0, 0, time.UTC)
	id := NewOrderID(paid)

	assert.Regexp(t, regexp.MustCompile(`^PAY2ME20240307ODR[0-9A-F]{6}$`), id)
	assert.NotEqual(t, id, NewOrderID(paid))
}

func TestOrderStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusNotPacked, StatusNotPacked, true},
		{StatusNotPacked, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusReadyForShipment, false},
		{StatusDelivered, StatusNotPacked, false},
		{StatusNotPacked, OrderStatus(9), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestEnumLabels(t *testing.T) {
	assert.Equal(t, "Ready For Shipment", StatusReadyForShipment.String())
	assert.Equal(t, "CASH ON DELIVERY", PaymentCashOnDelivery.String())
	assert.Equal(t, "Pickup", ShippingPickup.String())
	assert.False(t, PaymentStatus(0).Valid())
	assert.False(t, ShippingMethod(7).Valid())
}

func TestParseLifecycle(t *testing.T) {
	l, err := ParseLifecycle(" Active ")
	require.NoError(t, err)
	assert.True(t, l.IsActive())

	_, err = ParseLifecycle("archived")
	assert.Error(t, err)
	assert.False(t, LifecycleDeleted.IsActive())
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("PayPal")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodPayPal, m)

	_, err = ParsePaymentMethod("card")
	assert.Error(t, err)
}

func TestCoupon_ValidOn(t *testing.T) {
	c := Coupon{
		Lifecycle: LifecycleActive,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, c.ValidOn(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, c.ValidOn(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)), "end date is inclusive")
	assert.False(t, c.ValidOn(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	c.Lifecycle = LifecycleInactive
	assert.False(t, c.ValidOn(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestAddress_Snapshot(t *testing.T) {
	a := Address{Line: "1 Main St", City: "Springfield", District: "Central", Country: "US", Postcode: "12345"}
	assert.Equal(t, "1 Main St, Springfield, US, 12345", a.Snapshot())
}
