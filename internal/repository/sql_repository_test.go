package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/shelf/internal/domain"
	"github.com/jbweber/homelab/shelf/internal/testutil"
)

func TestProductRepository_GetAll(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	repo := NewProductRepository(ds)

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProductRepository_GetAll_Empty(t *testing.T) {
	ds := testutil.SetupTestDatastore(t)
	repo := NewProductRepository(ds)

	products, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductRepository_GetByID(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	repo := NewProductRepository(ds)
	ctx := context.Background()

	found, ok, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), found.ID)
	assert.Equal(t, "Kalem", found.Name)

	// Test not found
	_, ok, err = repo.GetByID(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductRepository_Create(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	repo := NewProductRepository(ds)
	ctx := context.Background()

	categoryID := int64(1)
	product := domain.Product{
		Name:       "Kalem 30",
		Price:      decimal.NewFromInt(200),
		Stock:      100,
		Color:      "Kırmızı",
		CategoryID: &categoryID,
	}
	require.NoError(t, repo.Create(ctx, &product))
	assert.Equal(t, int64(3), product.ID)

	found, ok, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Kalem 30", found.Name)
}

func TestProductRepository_Create_StoreError(t *testing.T) {
	ds := testutil.SetupTestDatastore(t)
	repo := NewProductRepository(ds)

	missing := int64(7)
	product := domain.Product{Name: "Orphan", CategoryID: &missing}
	err := repo.Create(context.Background(), &product)
	require.Error(t, err)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create", storeErr.Op)
	assert.Equal(t, "products", storeErr.Entity)
	assert.True(t, IsStoreError(err))
}

func TestProductRepository_Update(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	repo := NewProductRepository(ds)
	ctx := context.Background()

	product, ok, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)

	product.Color = "Yeşil"
	product.Price = decimal.RequireFromString("250.25")
	require.NoError(t, repo.Update(ctx, product))

	found, _, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Yeşil", found.Color)
	assert.Equal(t, "250.25", found.Price.StringFixed(2))
}

func TestProductRepository_Delete(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	repo := NewProductRepository(ds)
	ctx := context.Background()

	product, ok, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Delete(ctx, product))

	_, ok, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryRepository_DeleteCascadesToProducts(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	categories := NewCategoryRepository(ds)
	products := NewProductRepository(ds)
	ctx := context.Background()

	category, ok, err := categories.GetByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, categories.Delete(ctx, category))

	all, err := products.GetAll(ctx)
	require.NoError(t, err)
	for _, p := range all {
		if assert.NotNil(t, p.CategoryID) {
			assert.NotEqual(t, int64(1), *p.CategoryID)
		}
	}

	_, ok, err = products.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok, "product in deleted category should be gone")
}

func TestRepository_ClosedStore(t *testing.T) {
	ds := testutil.SetupTestDatastore(t)
	repo := NewCategoryRepository(ds)
	require.NoError(t, ds.DB.Close())

	_, err := repo.GetAll(context.Background())
	assert.True(t, IsStoreError(err))

	_, _, err = repo.GetByID(context.Background(), 1)
	assert.True(t, IsStoreError(err))
}
