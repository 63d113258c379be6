package review

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/dbtest"
	"github.com/pay2me/storefront/internal/models"
)

func newService(t *testing.T) (*Service, *models.Product) {
	t.Helper()
	db := dbtest.Open(t)
	products := &catalog.GormRepo{DB: db}
	p := &models.Product{Name: "Mug", Price: decimal.NewFromInt(10), Quantity: 5, Lifecycle: models.LifecycleActive}
	require.NoError(t, products.CreateProduct(context.Background(), p))
	return &Service{Repo: &GormRepo{DB: db}, Products: products}, p
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	svc, p := newService(t)
	user := uuid.New()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(ctx, user, p.ID, SubmitRequest{Rating: rating})
		assert.ErrorIs(t, err, ErrValidation, "rating %d", rating)
	}

	_, err := svc.Submit(ctx, user, 9999, SubmitRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmit_ReplacesOwnReview(t *testing.T) {
	ctx := context.Background()
	svc, p := newService(t)
	user := uuid.New()

	first, err := svc.Submit(ctx, user, p.ID, SubmitRequest{Rating: 2, Message: " chipped "})
	require.NoError(t, err)
	assert.Equal(t, "chipped", first.Message)

	second, err := svc.Submit(ctx, user, p.ID, SubmitRequest{Rating: 5, Message: "replacement is great"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)

	sum, err := svc.ForProduct(ctx, p.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Count)
	require.Len(t, sum.Reviews, 1)
	assert.Equal(t, "replacement is great", sum.Reviews[0].Message)
}

func TestForProduct_AverageRounded(t *testing.T) {
	ctx := context.Background()
	svc, p := newService(t)

	empty, err := svc.ForProduct(ctx, p.ID, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.Average.IsZero())

	for _, rating := range []int{5, 4, 4} {
		_, err := svc.Submit(ctx, uuid.New(), p.ID, SubmitRequest{Rating: rating})
		require.NoError(t, err)
	}

	sum, err := svc.ForProduct(ctx, p.ID, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.Count)
	assert.Len(t, sum.Reviews, 2, "page size applies to reviews only")
	assert.Equal(t, "4.3", sum.Average.String())
}
