package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		role   string
		action Action
		want   bool
	}{
		{"user", ActionShop, true},
		{"user", ActionViewOwnOrders, true},
		{"user", ActionUpdateOrders, false},
		{"staff", ActionViewAllOrders, true},
		{"staff", ActionUpdateOrders, true},
		{"staff", ActionManageCoupons, false},
		{"staff", ActionManageContact, true},
		{"user", ActionManageContact, false},
		{"admin", ActionManageContact, true},
		{"ADMIN", ActionManageProducts, true},
		{"admin", ActionUpdateOrders, true},
		{"", ActionShop, false},
		{"guest", ActionShop, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.Allowed(tc.role, tc.action), "%s/%s", tc.role, tc.action)
	}

	assert.ErrorIs(t, p.Check("user", ActionManageCoupons), ErrForbidden)
	assert.NoError(t, p.Check("admin", ActionManageCoupons))
}
