package order

import (
	"time"

	"github.com/pay2me/storefront/internal/models"
)

var deliveryDays = map[models.ShippingMethod]int{
	models.ShippingStandard:  5,
	models.ShippingExpress:   2,
	models.ShippingOvernight: 1,
}

// EstimatedDelivery is today plus the method's transit days, or nil for
// pickup and unknown methods.
func EstimatedDelivery(method models.ShippingMethod, today time.Time) *time.Time {
	days, ok := deliveryDays[method]
	if !ok {
		return nil
	}
	d := models.DateOf(today).AddDate(0, 0, days)
	return &d
}
