package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay2me/storefront/internal/dbtest"
	"github.com/pay2me/storefront/internal/models"
)

var today = time.Date(2024, time.June, 15, 14, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validCoupon() *models.Coupon {
	return &models.Coupon{
		Code:      "SAVE5",
		Discount:  dec("5.00"),
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Lifecycle: models.LifecycleActive,
	}
}

func TestEvaluate(t *testing.T) {
	inactive := validCoupon()
	inactive.Lifecycle = models.LifecycleInactive
	expired := validCoupon()
	expired.EndDate = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	future := validCoupon()
	future.StartDate = time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	deleted := validCoupon()
	deleted.Lifecycle = models.LifecycleDeleted

	tests := []struct {
		name     string
		coupon   *models.Coupon
		subtotal string
		reason   Reason
		discount string
	}{
		{name: "applies", coupon: validCoupon(), subtotal: "30.00", discount: "5.00"},
		{name: "discount equal to subtotal", coupon: validCoupon(), subtotal: "5.00", discount: "5.00"},
		{name: "unknown code", coupon: nil, subtotal: "30.00", reason: ReasonNotFound},
		{name: "deleted", coupon: deleted, subtotal: "30.00", reason: ReasonNotFound},
		{name: "inactive", coupon: inactive, subtotal: "30.00", reason: ReasonInactive},
		{name: "expired", coupon: expired, subtotal: "30.00", reason: ReasonExpired},
		{name: "not started", coupon: future, subtotal: "30.00", reason: ReasonExpired},
		{name: "discount exceeds subtotal", coupon: validCoupon(), subtotal: "4.99", reason: ReasonNotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate("SAVE5", tt.coupon, dec(tt.subtotal), today)
			if tt.reason != "" {
				require.ErrorIs(t, err, ErrRejected)
				var rej *Rejection
				require.ErrorAs(t, err, &rej)
				assert.Equal(t, tt.reason, rej.Reason)
				assert.NotEmpty(t, rej.Message())
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.discount)))
		})
	}
}

func newService(t *testing.T) *Service {
	return &Service{Repo: &GormRepo{DB: dbtest.Open(t)}}
}

func TestApply_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.Repo.Create(ctx, validCoupon()))

	first, err := svc.Apply(ctx, " SAVE5 ", dec("30.00"), today)
	require.NoError(t, err)
	second, err := svc.Apply(ctx, "SAVE5", dec("30.00"), today)
	require.NoError(t, err)

	assert.True(t, first.Discount.Equal(second.Discount))
	assert.Equal(t, first.Coupon.ID, second.Coupon.ID)
}

func TestApply_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	require.NoError(t, svc.Repo.Create(ctx, validCoupon()))

	_, err := svc.Apply(ctx, "save5", dec("30.00"), today)
	assert.ErrorIs(t, err, ErrRejected, "codes match exactly")

	_, err = svc.Apply(ctx, "", dec("30.00"), today)
	assert.ErrorIs(t, err, ErrRejected)

	_, err = svc.Apply(ctx, "SAVE5", dec("1.00"), today)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, ReasonNotApplicable, rej.Reason)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.Create(ctx, CreateRequest{Code: "NEW10", Discount: dec("10"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleActive, c.Lifecycle)

	_, err = svc.Create(ctx, CreateRequest{Code: "NEW10", Discount: dec("10"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(ctx, CreateRequest{Code: "BAD", Discount: dec("-1"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateRequest{Code: "BAD", Discount: dec("1"), StartDate: "2024-06-30", EndDate: "2024-06-01"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, CreateRequest{Code: "BAD", Discount: dec("1"), StartDate: "06/01/2024", EndDate: "2024-06-30"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	c, err := svc.Create(ctx, CreateRequest{Code: "GONE", Discount: dec("1"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Code: "STAY", Discount: dec("2"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrNotFound)

	total, items, err := svc.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "STAY", items[0].Code)

	_, err = svc.Apply(ctx, "GONE", dec("30"), today)
	assert.ErrorIs(t, err, ErrRejected)

	usable, err := svc.ListUsable(ctx, today)
	require.NoError(t, err)
	require.Len(t, usable, 1)
	assert.Equal(t, "STAY", usable[0].Code)
}

func TestList_ValidFirstThenNewestStart(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	svc.Now = func() time.Time { return today }

	for _, req := range []CreateRequest{
		{Code: "EXPIRED", Discount: dec("1"), StartDate: "2024-05-01", EndDate: "2024-05-31"},
		{Code: "OLD", Discount: dec("1"), StartDate: "2024-06-01", EndDate: "2024-06-30"},
		{Code: "FUTURE", Discount: dec("1"), StartDate: "2024-07-01", EndDate: "2024-07-31"},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}
	off := false
	_, err := svc.Create(ctx, CreateRequest{Code: "PAUSED", Discount: dec("1"), StartDate: "2024-06-10", EndDate: "2024-06-20", Active: &off})
	require.NoError(t, err)

	total, items, err := svc.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	var codes []string
	for _, c := range items {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"OLD", "FUTURE", "PAUSED", "EXPIRED"}, codes)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	c, err := svc.Create(ctx, CreateRequest{Code: "EDIT", Discount: dec("5"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Code: "TAKEN", Discount: dec("1"), StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)

	discount := dec("7.50")
	end := "2024-07-15"
	off := false
	got, err := svc.Update(ctx, c.ID, UpdateRequest{Discount: &discount, EndDate: &end, Active: &off})
	require.NoError(t, err)
	assert.True(t, got.Discount.Equal(discount))
	assert.Equal(t, models.LifecycleInactive, got.Lifecycle)

	stored, err := svc.Repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "EDIT", stored.Code)
	assert.Equal(t, time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC), stored.EndDate.UTC())

	taken := "TAKEN"
	_, err = svc.Update(ctx, c.ID, UpdateRequest{Code: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	early := "2024-05-01"
	_, err = svc.Update(ctx, c.ID, UpdateRequest{EndDate: &early})
	assert.ErrorIs(t, err, ErrValidation)

	negative := dec("-1")
	_, err = svc.Update(ctx, c.ID, UpdateRequest{Discount: &negative})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, 9999, UpdateRequest{Discount: &discount})
	assert.ErrorIs(t, err, ErrNotFound)
}
