// Package coupon decides whether a coupon code discounts a cart and manages
// coupons for the back office.
package coupon

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pay2me/storefront/internal/models"
)

var ErrRejected = errors.New("coupon rejected")

type Reason string

const (
	ReasonNotFound      Reason = "not_found"
	ReasonInactive      Reason = "inactive"
	ReasonExpired       Reason = "expired"
	ReasonNotApplicable Reason = "not_applicable"
)

var reasonMessages = map[Reason]string{
	ReasonNotFound:      "Coupon code is not valid",
	ReasonInactive:      "Coupon is no longer active",
	ReasonExpired:       "Coupon has expired or is not yet valid",
	ReasonNotApplicable: "Coupon discount exceeds the cart total",
}

// Rejection is returned for any code that does not discount the cart.
// It matches ErrRejected with errors.Is.
type Rejection struct {
	Code   string
	Reason Reason
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", r.Code, r.Reason)
}

func (r *Rejection) Is(target error) bool { return target == ErrRejected }

func (r *Rejection) Message() string { return reasonMessages[r.Reason] }

// Evaluate is pure: it returns the fixed discount c grants on subtotal at
// today, or a *Rejection. A nil coupon means the code did not match.
func Evaluate(code string, c *models.Coupon, subtotal decimal.Decimal, today time.Time) (decimal.Decimal, error) {
	switch {
	case c == nil || c.Lifecycle.IsDeleted():
		return decimal.Zero, &Rejection{Code: code, Reason: ReasonNotFound}
	case !c.Lifecycle.IsActive():
		return decimal.Zero, &Rejection{Code: code, Reason: ReasonInactive}
	case !c.ValidOn(today):
		return decimal.Zero, &Rejection{Code: code, Reason: ReasonExpired}
	case c.Discount.GreaterThan(subtotal):
		return decimal.Zero, &Rejection{Code: code, Reason: ReasonNotApplicable}
	}
	return c.Discount, nil
}
