package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay2me/storefront/internal/catalog"
	"github.com/pay2me/storefront/internal/dbtest"
	"github.com/pay2me/storefront/internal/models"
	"github.com/pay2me/storefront/internal/notify"
)

type fixture struct {
	svc      *Service
	products *catalog.GormRepo
	notifier *notify.Recorder
	user     *models.User
	mug      *models.Product
	lamp     *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := dbtest.Open(t)

	f := &fixture{products: &catalog.GormRepo{DB: db}, notifier: &notify.Recorder{}}
	f.user = &models.User{ID: uuid.New(), Email: "jane@example.com", FirstName: "Jane", Role: "user"}
	require.NoError(t, db.Create(f.user).Error)

	f.mug = &models.Product{Name: "Mug", Price: decimal.NewFromInt(10), Quantity: 5, Lifecycle: models.LifecycleActive}
	f.lamp = &models.Product{Name: "Lamp", Price: decimal.NewFromInt(30), Quantity: 2, Lifecycle: models.LifecycleActive}
	require.NoError(t, f.products.CreateProduct(ctx, f.mug))
	require.NoError(t, f.products.CreateProduct(ctx, f.lamp))

	f.svc = &Service{
		Repo:        &GormRepo{DB: db},
		Products:    f.products,
		Notifier:    f.notifier,
		AdminEmails: []string{"ops@example.com"},
		Now:         func() time.Time { return time.Date(2024, time.January, 7, 8, 0, 0, 0, time.UTC) },
	}
	return f
}

func TestAddRemoveList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	it, err := f.svc.Add(ctx, f.user.ID, f.mug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", it.Product.Name)

	_, err = f.svc.Add(ctx, f.user.ID, f.mug.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Add(ctx, f.user.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Add(ctx, f.user.ID, f.lamp.ID)
	require.NoError(t, err)

	items, err := f.svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, f.svc.Remove(ctx, f.user.ID, f.mug.ID))
	assert.ErrorIs(t, f.svc.Remove(ctx, f.user.ID, f.mug.ID), ErrNotFound)

	items, err = f.svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.lamp.ID, items[0].ProductID)

	again, err := f.svc.Add(ctx, f.user.ID, f.mug.ID)
	require.NoError(t, err)
	assert.Equal(t, it.ID, again.ID, "a removed item is reused")

	other, err := f.svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestList_HidesProductsNoLongerOnSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Add(ctx, f.user.ID, f.mug.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.user.ID, f.lamp.ID)
	require.NoError(t, err)

	f.lamp.Lifecycle = models.LifecycleInactive
	require.NoError(t, f.products.SaveProduct(ctx, f.lamp))

	items, err := f.svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].Product.Name)

	_, err = f.svc.Add(ctx, f.user.ID, f.lamp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiscard_IsSilentAndScopedToUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	someoneElse := &models.User{ID: uuid.New(), Email: "sam@example.com", Role: "user"}
	require.NoError(t, f.svc.Repo.DB.Create(someoneElse).Error)

	_, err := f.svc.Add(ctx, f.user.ID, f.mug.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, someoneElse.ID, f.mug.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Discard(ctx, f.user.ID, f.mug.ID))
	require.NoError(t, f.svc.Discard(ctx, f.user.ID, f.mug.ID))

	mine, err := f.svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := f.svc.List(ctx, someoneElse.ID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestWeeklyReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	n, err := f.svc.WeeklyReport(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.notifier.Tasks(), "nothing saved, nothing sent")

	_, err = f.svc.Add(ctx, f.user.ID, f.mug.ID)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, f.user.ID, f.lamp.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Remove(ctx, f.user.ID, f.lamp.ID))

	n, err = f.svc.WeeklyReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tasks := f.notifier.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, notify.TemplateWeeklyWishes, tasks[0].Template)
	assert.Equal(t, []string{"ops@example.com"}, tasks[0].To)
	assert.Equal(t, "2024-01-07", tasks[0].Context["as_of"])

	rows, ok := tasks[0].Context["items"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "jane@example.com", rows[0]["email"])
	assert.Equal(t, "Mug", rows[0]["product_name"])
	assert.Equal(t, f.mug.ID, rows[0]["product_id"])
}
