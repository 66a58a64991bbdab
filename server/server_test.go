package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/worldpeas/pkg/config"
	"github.com/example/worldpeas/pkg/identity"
	"github.com/example/worldpeas/pkg/kv"
	"github.com/example/worldpeas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCreator struct {
	emailExists bool
}

func (c *stubCreator) CreateUser(ctx context.Context, email, password, fullName string) (*models.Identity, error) {
	if c.emailExists {
		return nil, identity.ErrEmailExists
	}
	return &models.Identity{FullName: fullName, Email: email}, nil
}

func newTestServer(t *testing.T) (*Server, kv.Store) {
	t.Helper()
	store := kv.NewMemoryStore()
	srv := NewServer(&config.Config{}, store, &stubCreator{}, nil, nil, zap.NewNop())
	srv.SetupRoutes()
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer anon-key")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingBearerRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/products", models.Product{
		Name: "Heirloom Tomatoes", PriceValue: 5.99, Category: "Vegetables",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[models.Product](t, rec)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	rec = doRequest(t, srv, http.MethodGet, "/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Heirloom Tomatoes", decode[models.Product](t, rec).Name)

	rec = doRequest(t, srv, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	// Partial update merges over the stored document.
	rec = doRequest(t, srv, http.MethodPut, "/products/"+created.ID, map[string]interface{}{
		"priceValue": 6.49,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Product](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Heirloom Tomatoes", updated.Name)
	assert.Equal(t, 6.49, updated.PriceValue)

	rec = doRequest(t, srv, http.MethodDelete, "/products/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMissingProduct(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPut, "/products/nope", models.Product{Name: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Product not found", body["error"])
}

func TestCategoryCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/categories", models.Category{Name: "Fruit"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[models.Category](t, rec)
	require.NotEmpty(t, created.ID)

	rec = doRequest(t, srv, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decode[[]models.Category](t, rec)
	require.Len(t, categories, 1)
	assert.Equal(t, "Fruit", categories[0].Name)

	rec = doRequest(t, srv, http.MethodDelete, "/categories/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrderAssignsStatusPending(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/orders", models.Order{
		CustomerInfo: models.CustomerInfo{FullName: "Ada Lovelace"},
		Items:        []models.CartLine{{ProductID: "p1", Quantity: 2, PriceValue: 5}},
		Total:        10,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[models.Order](t, rec)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, 10.0, order.Total)
}

func TestListOrdersNewestFirst(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()

	old := models.Order{ID: "o1", Total: 1, CreatedAt: time.Now().Add(-time.Hour)}
	recent := models.Order{ID: "o2", Total: 2, CreatedAt: time.Now()}
	require.NoError(t, store.Set(ctx, keyOrder+old.ID, &old))
	require.NoError(t, store.Set(ctx, keyOrder+recent.ID, &recent))

	rec := doRequest(t, srv, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]models.Order](t, rec)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
	assert.Equal(t, "o1", orders[1].ID)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[models.SiteSettings](t, rec)
	assert.Equal(t, "World Peas", settings.Title)

	rec = doRequest(t, srv, http.MethodPut, "/settings", models.SiteSettings{
		Title: "Peas & Love", Description: "new look",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/settings", nil)
	settings = decode[models.SiteSettings](t, rec)
	assert.Equal(t, "Peas & Love", settings.Title)
	assert.NotEmpty(t, settings.UpdatedAt)
}

func TestPagesDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/pages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pages := decode[models.PagesContent](t, rec)
	assert.Equal(t, "新闻厅", pages.Newsstand.Title)
	assert.Equal(t, "关于我们", pages.About.Title)
}

func TestSignup(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/signup", map[string]string{
		"email": "ada@example.com", "password": "secret", "fullName": "Ada Lovelace",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, body["success"])
}

func TestSignupMissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/signup", map[string]string{
		"email": "ada@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "缺少必填字段", body["error"])
}

func TestSignupEmailExists(t *testing.T) {
	store := kv.NewMemoryStore()
	srv := NewServer(&config.Config{}, store, &stubCreator{emailExists: true}, nil, nil, zap.NewNop())
	srv.SetupRoutes()

	rec := doRequest(t, srv, http.MethodPost, "/signup", map[string]string{
		"email": "ada@example.com", "password": "secret", "fullName": "Ada Lovelace",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "该邮箱已被注册", body["error"])
}
