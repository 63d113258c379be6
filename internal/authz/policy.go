// Package authz decides which roles may perform which actions. Handlers never
// inspect roles themselves; routes declare the action they need and the auth
// middleware asks the policy once.
package authz

import (
	"errors"
	"strings"
)

var ErrForbidden = errors.New("not enough rights")

type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

type Action string

const (
	ActionShop           Action = "shop"
	ActionViewOwnOrders  Action = "orders:own"
	ActionViewAllOrders  Action = "orders:read"
	ActionUpdateOrders   Action = "orders:update"
	ActionManageCoupons  Action = "coupons:manage"
	ActionManageProducts Action = "products:manage"
	ActionManageContact  Action = "contact:manage"
)

type Policy struct {
	grants map[Role]map[Action]bool
}

func NewPolicy(grants map[Role][]Action) *Policy {
	p := &Policy{grants: make(map[Role]map[Action]bool, len(grants))}
	for role, actions := range grants {
		set := make(map[Action]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		p.grants[role] = set
	}
	return p
}

// DefaultPolicy: shoppers buy and see their own orders, staff also run the
// order desk and answer the contact inbox, admins do everything.
func DefaultPolicy() *Policy {
	shopper := []Action{ActionShop, ActionViewOwnOrders}
	staff := append(append([]Action{}, shopper...), ActionViewAllOrders, ActionUpdateOrders, ActionManageContact)
	admin := append(append([]Action{}, staff...), ActionManageCoupons, ActionManageProducts)
	return NewPolicy(map[Role][]Action{
		RoleUser:  shopper,
		RoleStaff: staff,
		RoleAdmin: admin,
	})
}

func (p *Policy) Allowed(role string, a Action) bool {
	return p.grants[Role(strings.ToLower(strings.TrimSpace(role)))][a]
}

func (p *Policy) Check(role string, a Action) error {
	if !p.Allowed(role, a) {
		return ErrForbidden
	}
	return nil
}
