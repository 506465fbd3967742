package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/shelf/internal/crud"
	"github.com/jbweber/homelab/shelf/internal/datastore"
	"github.com/jbweber/homelab/shelf/internal/domain"
	"github.com/jbweber/homelab/shelf/internal/repository"
	"github.com/jbweber/homelab/shelf/internal/testutil"
)

func newTestRouter(t *testing.T, ds *datastore.Datastore, opts ...Option) http.Handler {
	t.Helper()
	categories := crud.NewOrchestrator[domain.Category]("categories", repository.NewCategoryRepository(ds), zerolog.Nop())
	products := crud.NewOrchestrator[domain.Product]("products", repository.NewProductRepository(ds), zerolog.Nop(),
		crud.WithRule(crud.CategoryExists(categories)))

	r := chi.NewRouter()
	NewAPI(products, categories, opts...).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPI_ListProducts(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodGet, "/api/products", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var products []domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Kalem", products[0].Name)
	assert.True(t, decimal.NewFromInt(100).Equal(products[0].Price))
	assert.Equal(t, "Defter", products[1].Name)
	assert.Equal(t, 500, products[1].Stock)
}

func TestAPI_ListProducts_Empty(t *testing.T) {
	h := newTestRouter(t, testutil.SetupTestDatastore(t))

	w := do(t, h, http.MethodGet, "/api/products", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestAPI_GetProduct(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/api/products/1", http.StatusOK},
		{"zero id", "/api/products/0", http.StatusNotFound},
		{"missing", "/api/products/99", http.StatusNotFound},
		{"not a number", "/api/products/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAPI_CreateProduct(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodPost, "/api/products",
		`{"name":"Kalem 30","price":"200.50","stock":100,"color":"Kırmızı","category_id":1}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/products/3", w.Header().Get("Location"))

	var created domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(3), created.ID)

	w = do(t, h, http.MethodGet, "/api/products/3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var found domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.Equal(t, "Kalem 30", found.Name)
	assert.True(t, decimal.RequireFromString("200.5").Equal(found.Price))
}

func TestAPI_CreateProduct_InvalidInput(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	h := newTestRouter(t, ds)

	w := do(t, h, http.MethodPost, "/api/products", `{"price":"10","stock":"many","color":"Mavi"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error            string            `json:"error"`
		ValidationErrors map[string]string `json:"validation_errors"`
		Entity           domain.Product    `json:"entity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Equal(t, "is required", resp.ValidationErrors["name"])
	assert.Contains(t, resp.ValidationErrors["stock"], "must be of type")
	assert.Equal(t, "Mavi", resp.Entity.Color)

	products, err := ds.Products().FindAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, products, 2, "invalid input must not be stored")
}

func TestAPI_CreateProduct_MalformedJSON(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodPost, "/api/products", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON")
}

func TestAPI_CreateProduct_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		want  string
	}{
		{"sub-cent price", `{"name":"Kalem","price":"1.23456789"}`, "price", "must have at most 2 decimal places"},
		{"three decimals", `{"name":"Kalem","price":1.999}`, "price", "must have at most 2 decimal places"},
		{"negative price", `{"name":"Kalem","price":"-5"}`, "price", "must not be negative"},
		{"price not a number", `{"name":"Kalem","price":"abc","color":"Mavi"}`, "price", "must be a number"},
		{"unknown category", `{"name":"Kalem","price":"1","category_id":99}`, "category_id", "is not a valid category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := testutil.SetupSeededDatastore(t)
			h := newTestRouter(t, ds)

			w := do(t, h, http.MethodPost, "/api/products", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp struct {
				ValidationErrors map[string]string `json:"validation_errors"`
				Entity           domain.Product    `json:"entity"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, map[string]string{tt.field: tt.want}, resp.ValidationErrors)
			assert.Equal(t, "Kalem", resp.Entity.Name)

			products, err := ds.Products().FindAll(t.Context())
			require.NoError(t, err)
			assert.Len(t, products, 2)
		})
	}
}

func TestAPI_CreateProduct_PriceAndStockInvalid(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodPost, "/api/products", `{"name":"Kalem","price":"abc","stock":"many"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "must be a number", resp.ValidationErrors["price"])
	assert.Equal(t, "must be of type int", resp.ValidationErrors["stock"])
}

func TestAPI_UpdateProduct_SubCentPrice(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	h := newTestRouter(t, ds)

	w := do(t, h, http.MethodPut, "/api/products/1", `{"id":1,"name":"Kalem","price":"100.001","stock":1}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"price":"must have at most 2 decimal places"`)

	product, _, err := ds.Products().FindByID(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(product.Price))
}

func TestAPI_UpdateProduct(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodPut, "/api/products/1",
		`{"id":1,"name":"Kalem","price":"250.25","stock":40,"color":"Kırmızı","category_id":1}`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/products/1", "")
	var found domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	assert.True(t, decimal.RequireFromString("250.25").Equal(found.Price))
	assert.Equal(t, 40, found.Stock)
}

func TestAPI_UpdateProduct_IDMismatch(t *testing.T) {
	ds := testutil.SetupSeededDatastore(t)
	h := newTestRouter(t, ds)

	w := do(t, h, http.MethodPut, "/api/products/1", `{"id":2,"name":"Renamed","price":"1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	product, ok, err := ds.Products().FindByID(t.Context(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Defter", product.Name)
}

func TestAPI_UpdateProduct_NotFound(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodPut, "/api/products/42", `{"id":42,"name":"Ghost","price":"1"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_DeleteProduct(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_DeleteCategoryCascades(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t))

	w := do(t, h, http.MethodDelete, "/api/categories/1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/products", "")
	var products []domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Defter", products[0].Name)
}

func TestAPI_CategoryCRUD(t *testing.T) {
	h := newTestRouter(t, testutil.SetupTestDatastore(t))

	w := do(t, h, http.MethodPost, "/api/categories", `{"name":"Silgiler"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/categories/1", w.Header().Get("Location"))

	w = do(t, h, http.MethodPut, "/api/categories/1", `{"id":1,"name":"Silgi"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodGet, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Silgi"}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/categories", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_StoreFailure(t *testing.T) {
	ds := testutil.SetupTestDatastore(t)
	h := newTestRouter(t, ds)
	require.NoError(t, ds.DB.Close())

	w := do(t, h, http.MethodGet, "/api/products", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "sql:", "store details must not leak")
}

func TestAPI_RateLimit(t *testing.T) {
	h := newTestRouter(t, testutil.SetupSeededDatastore(t), WithRateLimit(2, time.Minute))

	for i := 0; i < 2; i++ {
		w := do(t, h, http.MethodGet, "/api/categories", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, h, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestDecodeEntity_BodyTooLarge(t *testing.T) {
	body := bytes.Repeat([]byte("a"), maxBodyBytes+10)
	req := httptest.NewRequest(http.MethodPost, "/api/categories", bytes.NewReader(append([]byte(`{"name":"`), body...)))
	w := httptest.NewRecorder()

	_, _, err := decodeEntity[domain.Category](w, req)
	assert.Error(t, err)
}
