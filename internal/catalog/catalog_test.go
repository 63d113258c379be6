package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay2me/storefront/internal/dbtest"
	"github.com/pay2me/storefront/internal/events"
	"github.com/pay2me/storefront/internal/models"
)

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []uint
	err     error
}

func (f *fakeIndexer) IndexProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p.ID)
	return f.err
}

func seedProduct(t *testing.T, repo *GormRepo, name string, qty int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString("10.00"), Quantity: qty, Lifecycle: models.LifecycleActive}
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	return p
}

func TestDecrementStock_Conditional(t *testing.T) {
	ctx := context.Background()
	repo := &GormRepo{DB: dbtest.Open(t)}
	p := seedProduct(t, repo, "Mug", 3)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))
	err := repo.DecrementStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, ErrOutOfStock)

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity, "failed decrement leaves stock untouched")
}

func TestGetProducts_SkipsInactive(t *testing.T) {
	ctx := context.Background()
	repo := &GormRepo{DB: dbtest.Open(t)}
	active := seedProduct(t, repo, "Active", 1)
	hidden := seedProduct(t, repo, "Hidden", 1)
	hidden.Lifecycle = models.LifecycleDeleted
	require.NoError(t, repo.SaveProduct(ctx, hidden))

	got, err := repo.GetProducts(ctx, []uint{active.ID, hidden.ID, 999})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, active.ID)
}

func TestCatalogService_CreateAndPatch(t *testing.T) {
	ctx := context.Background()
	idx := &fakeIndexer{}
	rec := &events.Recorder{}
	svc := &CatalogService{Repo: &GormRepo{DB: dbtest.Open(t)}, Indexer: idx, Events: rec}

	_, err := svc.CreateProduct(ctx, CreateProductRequest{Name: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, CreateProductRequest{Name: "Mug", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Mug", Price: decimal.RequireFromString("9.99"), Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleActive, p.Lifecycle)

	qty := 10
	name := "Big Mug"
	patched, err := svc.PatchProduct(ctx, p.ID, PatchProductRequest{Name: &name, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", patched.Name)
	assert.Equal(t, 10, patched.Quantity)

	bad := "archived"
	_, err = svc.PatchProduct(ctx, p.ID, PatchProductRequest{Lifecycle: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PatchProduct(ctx, 4242, PatchProductRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []uint{p.ID, p.ID}, idx.indexed)
	assert.Equal(t, []string{"product_created", "product_updated"}, rec.Types(events.TopicProducts))
}

func TestCatalogService_IndexFailureIsNotFatal(t *testing.T) {
	svc := &CatalogService{Repo: &GormRepo{DB: dbtest.Open(t)}, Indexer: &fakeIndexer{err: errors.New("es down")}}

	p, err := svc.CreateProduct(context.Background(), CreateProductRequest{Name: "Mug", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
}

func TestCatalogService_GetProductNotFound(t *testing.T) {
	svc := &CatalogService{Repo: &GormRepo{DB: dbtest.Open(t)}}
	_, err := svc.GetProduct(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
